package e2e

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

// register fills and submits the registration form for a fresh username.
func (suite *E2ETestSuite) register(username string) {
	_, err := suite.page.Goto(appURL + "/register")
	require.NoError(suite.T(), err, "could not open register page")

	err = suite.expect.Locator(suite.page.Locator(".register-form")).ToBeVisible()
	require.NoError(suite.T(), err, "register form not visible")

	require.NoError(suite.T(), suite.page.Locator("input[name=username]").Fill(username))
	require.NoError(suite.T(), suite.page.Locator("input[name=password]").Fill("testpass123"))
	require.NoError(suite.T(), suite.page.Locator("input[name=name]").Fill("Test Person"))
	require.NoError(suite.T(), suite.page.Locator("input[name=birthdate]").Fill("2000-03-01"))
	require.NoError(suite.T(), suite.page.Locator("input[name=address]").Fill("1 Browser Lane"))

	require.NoError(suite.T(), suite.page.Locator(".register-btn").Click())

	// Lands back on the login page with a success notice
	err = suite.expect.Locator(suite.page.Locator(".notice-success")).ToContainText("Registration successful")
	require.NoError(suite.T(), err, "registration success notice missing")
}

func (suite *E2ETestSuite) login(username string) {
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	require.NoError(suite.T(), suite.page.Locator("input[name=username]").Fill(username))
	require.NoError(suite.T(), suite.page.Locator("input[name=password]").Fill("testpass123"))
	require.NoError(suite.T(), suite.page.Locator(".login-btn").Click())

	err = suite.expect.Locator(suite.page.Locator(".profile-card")).ToBeVisible()
	require.NoError(suite.T(), err, "did not land on the profile page after login")
}

func uniqueUsername(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func (suite *E2ETestSuite) TestRootRedirectsToLogin() {
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "root should land on the login form")
}

func (suite *E2ETestSuite) TestRegisterLoginProfileLogout() {
	username := uniqueUsername("e2euser")

	suite.register(username)
	suite.login(username)

	// Profile shows the registered details and the derived age
	err := suite.expect.Locator(suite.page.Locator(".profile-name")).ToHaveText("Test Person")
	require.NoError(suite.T(), err, "profile name mismatch")

	err = suite.expect.Locator(suite.page.Locator(".profile-address")).ToHaveText("1 Browser Lane")
	require.NoError(suite.T(), err, "profile address mismatch")

	// Born 2000-03-01; any run date gives a two-digit age
	err = suite.expect.Locator(suite.page.Locator(".profile-age")).ToHaveText(regexp.MustCompile(`^\d{2}$`))
	require.NoError(suite.T(), err, "profile age should render as a number")

	// The fallback image is shown when nothing was uploaded
	src, err := suite.page.Locator(".profile-photo").GetAttribute("src")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "/static/uploads/default.png", src)

	// Logout returns to the login form with a notice
	require.NoError(suite.T(), suite.page.Locator(".logout-btn").Click())
	err = suite.expect.Locator(suite.page.Locator(".notice-info")).ToContainText("logged out")
	require.NoError(suite.T(), err, "logout notice missing")
}

func (suite *E2ETestSuite) TestWrongPasswordStaysOnLogin() {
	username := uniqueUsername("e2ewrongpw")
	suite.register(username)

	require.NoError(suite.T(), suite.page.Locator("input[name=username]").Fill(username))
	require.NoError(suite.T(), suite.page.Locator("input[name=password]").Fill("not-the-password"))
	require.NoError(suite.T(), suite.page.Locator(".login-btn").Click())

	err := suite.expect.Locator(suite.page.Locator(".notice-danger")).ToContainText("Invalid credentials")
	require.NoError(suite.T(), err, "error notice missing")

	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "should remain on the login form")
}

func (suite *E2ETestSuite) TestProfileRequiresLogin() {
	_, err := suite.page.Goto(appURL + "/profile")
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "unauthenticated profile visit should land on login")

	err = suite.expect.Locator(suite.page.Locator(".notice-warning")).ToContainText("Please log in")
	require.NoError(suite.T(), err, "warning notice missing")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
