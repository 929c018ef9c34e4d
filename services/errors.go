package services

import "errors"

// Business errors raised by the services. Controllers translate these to
// HTTP statuses; none of them is retried internally.
var (
	// Not found
	ErrMemberNotFound      = errors.New("member not found")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanRequestNotFound = errors.New("loan request not found")
	ErrFixedSavingNotFound = errors.New("fixed saving not found")
	ErrSettingNotFound     = errors.New("setting not found")
	ErrUserNotFound        = errors.New("user not found")

	// Invalid state
	ErrMemberInactive    = errors.New("member is not active")
	ErrMemberHasLoans    = errors.New("member has current or overdue loans")
	ErrLoanNotPayable    = errors.New("payments cannot be recorded for this loan")
	ErrLoanImmutable     = errors.New("paid or cancelled loans cannot be updated")
	ErrRequestNotPending = errors.New("only pending loan requests can be reviewed")
	ErrNotCancellable    = errors.New("only active fixed savings can be changed")
	ErrNotYetMatured     = errors.New("fixed saving has not reached its end date")

	// Constraint violations
	ErrDuplicateDNI            = errors.New("a member with this DNI already exists")
	ErrDuplicatePendingRequest = errors.New("member already has a pending loan request")
	ErrDuplicatePayment        = errors.New("a payment for this week is already registered")
	ErrDuplicateSetting        = errors.New("setting key already exists")
	ErrDuplicateUsername       = errors.New("username already taken")

	// Business-rule gate
	ErrCapacityExceeded = errors.New("requested amount exceeds the member's payment capacity")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is disabled")
)

// ErrorKind classifies a business error for transport mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindConstraintViolation
	KindCapacityExceeded
	KindUnauthorized
)

var errorKinds = map[error]ErrorKind{
	ErrMemberNotFound:      KindNotFound,
	ErrLoanNotFound:        KindNotFound,
	ErrLoanRequestNotFound: KindNotFound,
	ErrFixedSavingNotFound: KindNotFound,
	ErrSettingNotFound:     KindNotFound,
	ErrUserNotFound:        KindNotFound,

	ErrMemberInactive:    KindInvalidState,
	ErrMemberHasLoans:    KindInvalidState,
	ErrLoanNotPayable:    KindInvalidState,
	ErrLoanImmutable:     KindInvalidState,
	ErrRequestNotPending: KindInvalidState,
	ErrNotCancellable:    KindInvalidState,
	ErrNotYetMatured:     KindInvalidState,

	ErrDuplicateDNI:            KindConstraintViolation,
	ErrDuplicatePendingRequest: KindConstraintViolation,
	ErrDuplicatePayment:        KindConstraintViolation,
	ErrDuplicateSetting:        KindConstraintViolation,
	ErrDuplicateUsername:       KindConstraintViolation,

	ErrCapacityExceeded: KindCapacityExceeded,

	ErrInvalidCredentials: KindUnauthorized,
	ErrUserInactive:       KindUnauthorized,
}

// KindOf returns the taxonomy kind of err, or KindInternal for anything that
// is not a known business error.
func KindOf(err error) ErrorKind {
	for known, kind := range errorKinds {
		if errors.Is(err, known) {
			return kind
		}
	}
	return KindInternal
}
