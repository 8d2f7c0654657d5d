package session

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey struct{}

// CartID returns the cart identifier resolved for this request, or "" when
// the resolver middleware did not run.
func CartID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// CartCreator is the slice of the cart store the resolver needs.
type CartCreator interface {
	EnsureCart(ctx context.Context, cartID string) error
}

// Resolver maps an inbound request to a durable cart identifier,
// independent of any user authentication. The token lives in a long-lived
// httpOnly cookie; if the token survives but the cart row was lost, the row
// is recreated under the same token so the client cookie stays valid.
type Resolver struct {
	Store      CartCreator
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cartID := ""
		if c, err := r.Cookie(rs.CookieName); err == nil && c.Value != "" {
			cartID = c.Value
		}

		minted := cartID == ""
		if minted {
			cartID = uuid.NewString()
		}

		// Create-if-absent covers both the fresh token and the
		// lost-row case in one statement.
		if err := rs.Store.EnsureCart(r.Context(), cartID); err != nil {
			log.Printf("ensure cart %s: %v", cartID, err)
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}

		if minted {
			http.SetCookie(w, &http.Cookie{
				Name:     rs.CookieName,
				Value:    cartID,
				Path:     "/",
				MaxAge:   int(rs.TTL.Seconds()),
				HttpOnly: true,
				Secure:   rs.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, cartID)))
	})
}
