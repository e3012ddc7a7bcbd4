package service

import "errors"

var (
	// ErrPurchaseTokenAlreadyKnown rejects a second intake for a token
	// that already has a live setup request.
	ErrPurchaseTokenAlreadyKnown = errors.New("purchase token already has a pending setup request")
	// ErrTokenBelongsToActiveAccount rejects intake for a subscription
	// that was already bound to an account.
	ErrTokenBelongsToActiveAccount = errors.New("purchase token belongs to an already fulfilled subscription")
	// ErrSubscriptionNotLinked rejects a webhook for a subscription that
	// was never bound to an account.
	ErrSubscriptionNotLinked = errors.New("subscription is not linked to any account")
	ErrAccountNotFound       = errors.New("account not found")
	ErrSetupRequestNotFound  = errors.New("no pending setup request found for subscription")
	// ErrSubscriptionAlreadyExists rejects a second bind for the same
	// subscription id.
	ErrSubscriptionAlreadyExists = errors.New("subscription is already linked to an account")
)

// ErrorCode returns the stable wire code for a business error, or empty
// when the error is not part of the taxonomy (transient, should be
// retried by the caller).
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrPurchaseTokenAlreadyKnown):
		return "DuplicateIntake"
	case errors.Is(err, ErrTokenBelongsToActiveAccount):
		return "AlreadyFulfilled"
	case errors.Is(err, ErrSubscriptionNotLinked):
		return "UnlinkedSubscription"
	case errors.Is(err, ErrAccountNotFound):
		return "AccountNotFound"
	case errors.Is(err, ErrSetupRequestNotFound):
		return "MissingSetupRequest"
	case errors.Is(err, ErrSubscriptionAlreadyExists):
		return "DuplicateLinkage"
	}
	return ""
}
