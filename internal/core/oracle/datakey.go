package oracle

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// KeyKind discriminates the variants of DataKey.
type KeyKind uint8

const (
	KindAdmin KeyKind = iota + 1
	KindBase
	KindPrice
	KindTimestamp
	KindDecimals
	KindRdmPeriod
	KindResolution
	KindAssets
	KindBaseFee
	KindBalance
)

var kindNames = map[KeyKind]string{
	KindAdmin:      "Admin",
	KindBase:       "Base",
	KindPrice:      "Price",
	KindTimestamp:  "Timestamp",
	KindDecimals:   "Decimals",
	KindRdmPeriod:  "RdmPeriod",
	KindResolution: "Resolution",
	KindAssets:     "Assets",
	KindBaseFee:    "BaseFee",
	KindBalance:    "Balance",
}

func (k KeyKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KeyKind(%d)", uint8(k))
}

// DataKey addresses one value in oracle storage. Only the fields relevant to
// Kind are set: Asset and Timestamp for KindPrice, Account for KindBalance.
// DataKey is comparable and may be used as a map key.
type DataKey struct {
	Kind      KeyKind
	Asset     Address
	Timestamp uint64
	Account   Address
}

var (
	AdminKey      = DataKey{Kind: KindAdmin}
	BaseKey       = DataKey{Kind: KindBase}
	TimestampKey  = DataKey{Kind: KindTimestamp}
	DecimalsKey   = DataKey{Kind: KindDecimals}
	RdmPeriodKey  = DataKey{Kind: KindRdmPeriod}
	ResolutionKey = DataKey{Kind: KindResolution}
	AssetsKey     = DataKey{Kind: KindAssets}
	BaseFeeKey    = DataKey{Kind: KindBaseFee}
)

// PriceKey returns the key of the price of asset at a quantized timestamp.
func PriceKey(asset Address, timestamp uint64) DataKey {
	return DataKey{Kind: KindPrice, Asset: asset, Timestamp: timestamp}
}

// BalanceKey returns the key of the prepaid balance of account.
func BalanceKey(account Address) DataKey {
	return DataKey{Kind: KindBalance, Account: account}
}

// ErrMalformedKey is returned by ParseKey for bytes that are not a DataKey.
var ErrMalformedKey = errors.New("malformed data key")

// Bytes serializes the key. Price keys are laid out as
// kind | len(asset) | asset | timestamp (big endian) so that one asset's
// prices sort chronologically in ordered stores.
func (k DataKey) Bytes() []byte {
	switch k.Kind {
	case KindPrice:
		buf := make([]byte, 0, 1+2+len(k.Asset)+8)
		buf = append(buf, byte(k.Kind))
		buf = appendAddress(buf, k.Asset)
		return binary.BigEndian.AppendUint64(buf, k.Timestamp)
	case KindBalance:
		buf := make([]byte, 0, 1+2+len(k.Account))
		buf = append(buf, byte(k.Kind))
		return appendAddress(buf, k.Account)
	default:
		return []byte{byte(k.Kind)}
	}
}

func appendAddress(buf []byte, a Address) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(a)))
	return append(buf, a...)
}

// ParseKey is the inverse of DataKey.Bytes.
func ParseKey(b []byte) (DataKey, error) {
	if len(b) == 0 {
		return DataKey{}, ErrMalformedKey
	}
	k := DataKey{Kind: KeyKind(b[0])}
	if _, ok := kindNames[k.Kind]; !ok {
		return DataKey{}, fmt.Errorf("%w: unknown kind %d", ErrMalformedKey, b[0])
	}
	rest := b[1:]
	switch k.Kind {
	case KindPrice:
		asset, rest, err := readAddress(rest)
		if err != nil {
			return DataKey{}, err
		}
		if len(rest) != 8 {
			return DataKey{}, fmt.Errorf("%w: bad timestamp length", ErrMalformedKey)
		}
		k.Asset = asset
		k.Timestamp = binary.BigEndian.Uint64(rest)
	case KindBalance:
		account, rest, err := readAddress(rest)
		if err != nil {
			return DataKey{}, err
		}
		if len(rest) != 0 {
			return DataKey{}, fmt.Errorf("%w: trailing bytes", ErrMalformedKey)
		}
		k.Account = account
	default:
		if len(rest) != 0 {
			return DataKey{}, fmt.Errorf("%w: trailing bytes", ErrMalformedKey)
		}
	}
	return k, nil
}

func readAddress(b []byte) (Address, []byte, error) {
	if len(b) < 2 {
		return "", nil, fmt.Errorf("%w: short address length", ErrMalformedKey)
	}
	n := int(binary.BigEndian.Uint16(b))
	b = b[2:]
	if len(b) < n {
		return "", nil, fmt.Errorf("%w: short address", ErrMalformedKey)
	}
	return Address(b[:n]), b[n:], nil
}

func (k DataKey) String() string {
	switch k.Kind {
	case KindPrice:
		return fmt.Sprintf("Price(%s,%d)", k.Asset, k.Timestamp)
	case KindBalance:
		return fmt.Sprintf("Balance(%s)", k.Account)
	default:
		return k.Kind.String()
	}
}
