package deploy

import (
	"errors"
	"fmt"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/types"
)

// Argument names of the native transfer entry point.
const (
	transferArgAmount = "amount"
	transferArgSource = "source"
	transferArgTarget = "target"
	transferArgID     = "id"
)

var ErrInvalidTransfer = errors.New("invalid transfer")

// TransferTarget is the recipient of a native transfer: a public key, an
// account hash, or a purse URef.
type TransferTarget struct {
	publicKey   crypto.PublicKey
	accountHash *clvalue.AccountHash
	uref        *clvalue.URefValue
}

// ParseTransferTarget tries the accepted target formats in order: public key
// hex, formatted account hash, formatted URef.
func ParseTransferTarget(s string) (TransferTarget, error) {
	if pk, err := crypto.ParsePublicKey(s); err == nil {
		return TransferTarget{publicKey: pk}, nil
	}
	if hash, err := clvalue.ParseAccountHash(s); err == nil {
		return TransferTarget{accountHash: &hash}, nil
	}
	if uref, err := clvalue.ParseURef(s); err == nil {
		return TransferTarget{uref: &uref}, nil
	}
	return TransferTarget{}, fmt.Errorf(
		"%w: target %q is not a public key, account hash or uref", ErrInvalidTransfer, s)
}

func (t TransferTarget) value() (clvalue.Value, error) {
	switch {
	case t.accountHash != nil:
		return clvalue.NewAccountHash(*t.accountHash), nil
	case t.uref != nil:
		return clvalue.NewURef(*t.uref), nil
	case !t.publicKey.IsZero():
		return clvalue.NewPublicKey(t.publicKey), nil
	default:
		return clvalue.Value{}, fmt.Errorf("%w: target is required", ErrInvalidTransfer)
	}
}

// NewTransferArgs assembles the native transfer argument set. A nil source
// means the account's main purse.
func NewTransferArgs(amount clvalue.Value, source *clvalue.URefValue, target TransferTarget, id uint64) (clvalue.Args, error) {
	if !amount.Type().Equal(clvalue.U512) {
		return nil, fmt.Errorf("%w: amount must be u512, got %s", ErrInvalidTransfer, amount.Type())
	}
	targetValue, err := target.value()
	if err != nil {
		return nil, err
	}
	var args clvalue.Args
	if err := args.Insert(transferArgAmount, amount); err != nil {
		return nil, err
	}
	if source != nil {
		if err := args.Insert(transferArgSource, clvalue.NewURef(*source)); err != nil {
			return nil, err
		}
	}
	if err := args.Insert(transferArgTarget, targetValue); err != nil {
		return nil, err
	}
	if err := args.Insert(transferArgID, clvalue.NewOptionSome(clvalue.NewU64(id))); err != nil {
		return nil, err
	}
	return args, nil
}

// ValidateTransferArgs checks the shape of a transfer argument set before any
// hashing happens: amount (u512) and target are mandatory, the transfer id is
// mandatory and must be u64 or opt_u64, and source when present must be a
// uref.
func ValidateTransferArgs(args clvalue.Args) error {
	amount, ok := args.Get(transferArgAmount)
	if !ok {
		return fmt.Errorf("%w: missing %q argument", ErrInvalidTransfer, transferArgAmount)
	}
	if !amount.Type().Equal(clvalue.U512) {
		return fmt.Errorf("%w: %q must be u512, got %s", ErrInvalidTransfer, transferArgAmount, amount.Type())
	}

	target, ok := args.Get(transferArgTarget)
	if !ok {
		return fmt.Errorf("%w: missing %q argument", ErrInvalidTransfer, transferArgTarget)
	}
	switch {
	case target.Type().Equal(clvalue.PublicKey),
		target.Type().Equal(clvalue.ByteArrayOf(32)),
		target.Type().Equal(clvalue.URef):
	default:
		return fmt.Errorf("%w: %q must be a public key, account hash or uref, got %s",
			ErrInvalidTransfer, transferArgTarget, target.Type())
	}

	id, ok := args.Get(transferArgID)
	if !ok {
		return fmt.Errorf("%w: missing %q argument", ErrInvalidTransfer, transferArgID)
	}
	if !id.Type().Equal(clvalue.U64) && !id.Type().Equal(clvalue.OptionOf(clvalue.U64)) {
		return fmt.Errorf("%w: %q must be u64 or opt_u64, got %s", ErrInvalidTransfer, transferArgID, id.Type())
	}

	if source, ok := args.Get(transferArgSource); ok && !source.Type().Equal(clvalue.URef) {
		return fmt.Errorf("%w: %q must be a uref, got %s", ErrInvalidTransfer, transferArgSource, source.Type())
	}
	return nil
}

// NewTransferItem builds and validates a native transfer session item.
func NewTransferItem(args clvalue.Args) (types.ExecutableDeployItem, error) {
	if err := ValidateTransferArgs(args); err != nil {
		return types.ExecutableDeployItem{}, err
	}
	return types.NewTransfer(args), nil
}
