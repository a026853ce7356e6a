package oracle

import "fmt"

// Error is a terminal oracle failure carrying a stable numeric code.
type Error struct {
	Code uint32
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.Name, e.Code)
}

// Error kinds. Codes are stable and exposed to clients, gaps are reserved.
var (
	ErrAlreadyInitialized    = &Error{Code: 0, Name: "AlreadyInitialized"}
	ErrInvalidResolution     = &Error{Code: 1, Name: "InvalidResolution"}
	ErrUnauthorized          = &Error{Code: 2, Name: "Unauthorized"}
	ErrInvalidTimestamp      = &Error{Code: 3, Name: "InvalidTimestamp"}
	ErrPriceNotFound         = &Error{Code: 4, Name: "PriceNotFound"}
	ErrInvalidAssetPair      = &Error{Code: 5, Name: "InvalidAssetPair"}
	ErrAssetAlreadyPresented = &Error{Code: 6, Name: "AssetAlreadyPresented"}
	ErrInvalidUpdatesLength  = &Error{Code: 8, Name: "InvalidUpdatesLength"}
	ErrInvalidPriceValue     = &Error{Code: 9, Name: "InvalidPriceValue"}
	ErrNoPrevPrice           = &Error{Code: 10, Name: "NoPrevPrice"}
	ErrInvalidFeeAsset       = &Error{Code: 11, Name: "InvalidFeeAsset"}
	ErrDepositNotEnabled     = &Error{Code: 12, Name: "DepositNotEnabled"}
	ErrInvalidDepositAmount  = &Error{Code: 13, Name: "InvalidDepositAmount"}
	ErrInvalidFreeResolution = &Error{Code: 14, Name: "InvalidFreeResolution"}
	ErrInsufficientBalance   = &Error{Code: 15, Name: "InsufficientBalance"}
)

var errorsByCode = map[uint32]*Error{}

func init() {
	for _, e := range []*Error{
		ErrAlreadyInitialized, ErrInvalidResolution, ErrUnauthorized,
		ErrInvalidTimestamp, ErrPriceNotFound, ErrInvalidAssetPair,
		ErrAssetAlreadyPresented, ErrInvalidUpdatesLength, ErrInvalidPriceValue,
		ErrNoPrevPrice, ErrInvalidFeeAsset, ErrDepositNotEnabled,
		ErrInvalidDepositAmount, ErrInvalidFreeResolution, ErrInsufficientBalance,
	} {
		errorsByCode[e.Code] = e
	}
}

// ErrorByCode returns the error kind registered under code, or nil.
func ErrorByCode(code uint32) *Error {
	return errorsByCode[code]
}
