package deploy

import (
	"errors"
	"fmt"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/types"
)

var (
	ErrMissingAccount = errors.New("deploy is missing a session account")
	ErrMissingPayment = errors.New("deploy is missing payment code")
)

// Builder assembles a deploy step by step. The zero-value defaults are the
// current time, the default TTL and the default gas price. Build hashes the
// deploy and, when a secret key was provided, signs it.
type Builder struct {
	account      crypto.PublicKey
	secretKey    *crypto.SecretKey
	timestamp    types.Timestamp
	ttl          types.TimeDiff
	gasPrice     uint64
	dependencies []types.Digest
	chainName    string
	payment      *types.ExecutableDeployItem
	session      types.ExecutableDeployItem
}

func NewBuilder(chainName string, session types.ExecutableDeployItem) *Builder {
	return &Builder{
		timestamp: types.Now(),
		ttl:       types.DefaultTTL,
		gasPrice:  types.DefaultGasPrice,
		chainName: chainName,
		session:   session,
	}
}

// NewTransferBuilder seeds the builder with a native transfer session. A nil
// source means the account's main purse.
func NewTransferBuilder(chainName string, amount clvalue.Value, source *clvalue.URefValue, target TransferTarget, id uint64) (*Builder, error) {
	args, err := NewTransferArgs(amount, source, target, id)
	if err != nil {
		return nil, err
	}
	session, err := NewTransferItem(args)
	if err != nil {
		return nil, err
	}
	return NewBuilder(chainName, session), nil
}

// WithAccount sets the deploy account. If not provided, the public key of the
// signing secret key is used.
func (b *Builder) WithAccount(account crypto.PublicKey) *Builder {
	b.account = account
	return b
}

// WithSecretKey sets the key that signs the deploy on Build. Without it the
// deploy is built unsigned.
func (b *Builder) WithSecretKey(key *crypto.SecretKey) *Builder {
	b.secretKey = key
	return b
}

func (b *Builder) WithStandardPayment(amount clvalue.Value) (*Builder, error) {
	payment, err := types.NewStandardPayment(amount)
	if err != nil {
		return nil, err
	}
	return b.WithPayment(payment), nil
}

func (b *Builder) WithPayment(payment types.ExecutableDeployItem) *Builder {
	b.payment = &payment
	return b
}

func (b *Builder) WithTimestamp(timestamp types.Timestamp) *Builder {
	b.timestamp = timestamp
	return b
}

func (b *Builder) WithTTL(ttl types.TimeDiff) *Builder {
	b.ttl = ttl
	return b
}

func (b *Builder) WithGasPrice(gasPrice uint64) *Builder {
	b.gasPrice = gasPrice
	return b
}

func (b *Builder) WithDependencies(deps []types.Digest) *Builder {
	b.dependencies = deps
	return b
}

func (b *Builder) Build() (*types.Deploy, error) {
	account := b.account
	if account.IsZero() {
		if b.secretKey == nil {
			return nil, ErrMissingAccount
		}
		account = b.secretKey.PublicKey()
	}
	if b.payment == nil {
		return nil, ErrMissingPayment
	}
	if b.session.IsTransfer() {
		if err := ValidateTransferArgs(b.session.Args()); err != nil {
			return nil, err
		}
	}

	deploy, err := types.NewDeploy(types.DeployParams{
		Account:      account,
		Timestamp:    b.timestamp,
		TTL:          b.ttl,
		GasPrice:     b.gasPrice,
		Dependencies: b.dependencies,
		ChainName:    b.chainName,
	}, *b.payment, b.session)
	if err != nil {
		return nil, fmt.Errorf("building deploy: %w", err)
	}
	if b.secretKey != nil {
		return deploy.Sign(b.secretKey)
	}
	return deploy, nil
}
