package auth

import (
	"fmt"
	"strings"
)

// ShowLoginGuide explains how the scraper signs in to X
func ShowLoginGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("🔐 X LOGIN")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
	fmt.Println("Search results and profile tabs on x.com are only shown to signed-in")
	fmt.Println("users. The scraper signs in with a real browser and saves the session")
	fmt.Println("cookies so later runs skip the login form.")
	fmt.Println()
	fmt.Println("Credentials are looked up in this order:")
	fmt.Println("   1. TWITTER_USER and TWITTER_PASS (environment or .env file)")
	fmt.Println("   2. The system keychain")
	fmt.Println("   3. The encrypted credentials file in the config directory")
	fmt.Println()
	fmt.Println("💡 TIPS:")
	fmt.Println("   • Use a secondary account for scraping")
	fmt.Println("   • If X asks for a verification code, run once with --headless=false")
	fmt.Println("     and finish the check by hand; the cookie jar keeps the session")
	fmt.Println("   • Delete the cookie jar to force a fresh login")
	fmt.Println()
	fmt.Println("⚠️  Your password is stored encrypted and never written to config files.")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
}
