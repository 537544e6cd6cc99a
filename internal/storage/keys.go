package storage

import (
	"fmt"
	"time"
)

const (
	// Cart snapshot per client: quickOrderCart:{client} -> [CartLine]
	keyCart = "quickOrderCart:%s"
	// Last cart write per client, RFC3339.
	keyCartUpdated = "cartLastUpdated:%s"

	// Shared order log, newest first.
	KeyOrders = "quickOrderOrders"

	keyNotifiedCancelled = "notifiedCancelledOrders:%s"
	keyHasVisited        = "hasVisited:%s"
	keyUserCache         = "firebaseUser:%s"

	// Checkout hand-off values.
	keyCheckoutCart    = "checkoutCart:%s"
	keyCheckoutTotal   = "checkoutTotal:%s"
	keyCheckoutStarted = "checkoutStarted:%s"

	keyAuthUser    = "authUser:%s"
	keyAuthRevoked = "authRevoked:%s"
	// Failed sign-in timestamps per email.
	keyAuthFailures = "authFailures:%s"
)

const DefaultCartMaxAge = 24 * time.Hour

func CartKey(clientID string) string { return fmt.Sprintf(keyCart, clientID) }
func CartUpdatedKey(clientID string) string { return fmt.Sprintf(keyCartUpdated, clientID) }
func NotifiedCancelledKey(clientID string) string { return fmt.Sprintf(keyNotifiedCancelled, clientID) }
func HasVisitedKey(clientID string) string { return fmt.Sprintf(keyHasVisited, clientID) }
func UserCacheKey(clientID string) string { return fmt.Sprintf(keyUserCache, clientID) }
func CheckoutCartKey(clientID string) string { return fmt.Sprintf(keyCheckoutCart, clientID) }
func CheckoutTotalKey(clientID string) string { return fmt.Sprintf(keyCheckoutTotal, clientID) }
func CheckoutStartedKey(clientID string) string { return fmt.Sprintf(keyCheckoutStarted, clientID) }
func AuthUserKey(email string) string { return fmt.Sprintf(keyAuthUser, email) }
func AuthRevokedKey(tokenID string) string { return fmt.Sprintf(keyAuthRevoked, tokenID) }
func AuthFailuresKey(email string) string   { return fmt.Sprintf(keyAuthFailures, email) }
