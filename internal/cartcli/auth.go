package cartcli

import (
	"context"
	"fmt"
	"os"

	"github.com/vallamarket/cartsync/internal/auth"
	"github.com/vallamarket/cartsync/internal/cart"
)

// login reads a session token issued by the marketplace backend, verifies
// its signature and starts a cart session for the embedded identity.
func (a *App) login(ctx context.Context) {

	token, err := GetToken(os.Stdout)
	if err != nil {
		fmt.Println("Error reading token:", err)
		return
	}

	userID, role, err := auth.ParseSessionToken(string(token), []byte(a.config.SessionSecret))
	if err != nil {
		fmt.Println("Invalid session token:", err)
		return
	}

	a.startSession(ctx, cart.Session{UserID: userID, Role: role})
	fmt.Printf("Logged in as %s (%s)\n", userID, role)
}

// logout drops back to an anonymous local-only session.
func (a *App) logout(ctx context.Context) {
	a.startSession(ctx, cart.Session{})
	fmt.Println("Logged out")
}
