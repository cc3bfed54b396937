package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/casper-ecosystem/casper-client-go/crypto"
)

// MaxDeploySize is the maximum permissible serialized size of a deploy,
// matching the production chainspec's max_deploy_size.
const MaxDeploySize = 1024 * 1024

// DefaultGasPrice is the gas price applied when none is given.
const DefaultGasPrice = 1

var (
	ErrDeployTooLarge = errors.New("deploy exceeds maximum size")
	ErrInvalidDeploy  = errors.New("invalid deploy")
)

type (
	// DeployHeader carries the deploy metadata that is hashed to produce the
	// deploy's identifying hash.
	DeployHeader struct {
		Account      crypto.PublicKey `json:"account"`
		Timestamp    Timestamp        `json:"timestamp"`
		TTL          TimeDiff         `json:"ttl"`
		GasPrice     uint64           `json:"gas_price"`
		BodyHash     Digest           `json:"body_hash"`
		Dependencies []Digest         `json:"dependencies"`
		ChainName    string           `json:"chain_name"`
	}

	// Approval is one signatory's signature over the deploy hash.
	Approval struct {
		Signer    crypto.PublicKey `json:"signer"`
		Signature crypto.Signature `json:"signature"`
	}

	// Deploy is a unit of work submitted to the network. Once constructed it
	// is immutable; Sign returns a new value carrying the added approval.
	Deploy struct {
		Hash      Digest               `json:"hash"`
		Header    DeployHeader         `json:"header"`
		Payment   ExecutableDeployItem `json:"payment"`
		Session   ExecutableDeployItem `json:"session"`
		Approvals []Approval           `json:"approvals"`
	}

	// DeployParams are the header inputs of a new deploy.
	DeployParams struct {
		Account      crypto.PublicKey
		Timestamp    Timestamp
		TTL          TimeDiff
		GasPrice     uint64
		Dependencies []Digest
		ChainName    string
	}
)

// Bytes returns the canonical header encoding, in the field order that the
// deploy hash commits to.
func (h DeployHeader) Bytes() []byte {
	var buf bytes.Buffer
	buf.Write(h.Account.Bytes())
	buf.Write(h.Timestamp.Bytes())
	buf.Write(h.TTL.Bytes())
	var gasPrice [8]byte
	binary.LittleEndian.PutUint64(gasPrice[:], h.GasPrice)
	buf.Write(gasPrice[:])
	buf.Write(h.BodyHash[:])
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(h.Dependencies)))
	buf.Write(count[:])
	for _, dep := range h.Dependencies {
		buf.Write(dep[:])
	}
	writeString(&buf, h.ChainName)
	return buf.Bytes()
}

// NewDeploy assembles an unsigned deploy: it computes the body hash over the
// canonically encoded payment and session items, fills in the header and
// derives the deploy hash. Validation failures abort before any hashing.
func NewDeploy(params DeployParams, payment, session ExecutableDeployItem) (*Deploy, error) {
	if params.Account.IsZero() {
		return nil, fmt.Errorf("%w: account public key is required", ErrInvalidDeploy)
	}
	if params.ChainName == "" {
		return nil, fmt.Errorf("%w: chain name is required", ErrInvalidDeploy)
	}
	if params.GasPrice == 0 {
		return nil, fmt.Errorf("%w: gas price must be positive", ErrInvalidDeploy)
	}
	if err := params.TTL.Validate(); err != nil {
		return nil, err
	}

	body := payment.Bytes()
	body = append(body, session.Bytes()...)

	header := DeployHeader{
		Account:      params.Account,
		Timestamp:    params.Timestamp,
		TTL:          params.TTL,
		GasPrice:     params.GasPrice,
		BodyHash:     HashBytes(body),
		Dependencies: dedupDigests(params.Dependencies),
		ChainName:    params.ChainName,
	}
	deploy := &Deploy{
		Hash:    HashBytes(header.Bytes()),
		Header:  header,
		Payment: payment,
		Session: session,
	}
	if err := deploy.ValidSize(); err != nil {
		return nil, err
	}
	return deploy, nil
}

// dedupDigests drops repeated dependency hashes, keeping first-occurrence
// order.
func dedupDigests(deps []Digest) []Digest {
	out := make([]Digest, 0, len(deps))
	seen := make(map[Digest]struct{}, len(deps))
	for _, dep := range deps {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}

// Sign returns a copy of the deploy with an approval by key added. The deploy
// hash is not affected. Re-signing with a key that already approved replaces
// its earlier approval instead of accumulating a duplicate.
func (d *Deploy) Sign(key *crypto.SecretKey) (*Deploy, error) {
	signature, err := key.Sign(d.Hash[:])
	if err != nil {
		return nil, fmt.Errorf("signing deploy %s: %w", d.Hash, err)
	}
	signer := key.PublicKey()

	signed := *d
	signed.Approvals = make([]Approval, 0, len(d.Approvals)+1)
	for _, approval := range d.Approvals {
		if !approval.Signer.Equal(signer) {
			signed.Approvals = append(signed.Approvals, approval)
		}
	}
	signed.Approvals = append(signed.Approvals, Approval{Signer: signer, Signature: signature})
	sort.Slice(signed.Approvals, func(i, j int) bool {
		return signed.Approvals[i].Signer.Compare(signed.Approvals[j].Signer) < 0
	})
	return &signed, nil
}

// VerifyApprovals checks every approval's signature over the deploy hash and
// rejects duplicate signers.
func (d *Deploy) VerifyApprovals() error {
	seen := make(map[string]struct{}, len(d.Approvals))
	for _, approval := range d.Approvals {
		id := approval.Signer.Hex()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate approval by %s", ErrInvalidDeploy, id)
		}
		seen[id] = struct{}{}
		if err := crypto.Verify(approval.Signer, approval.Signature, d.Hash[:]); err != nil {
			return fmt.Errorf("approval by %s: %w", id, err)
		}
	}
	return nil
}

// VerifyHashes recomputes the body and deploy hashes and compares them with
// the recorded ones.
func (d *Deploy) VerifyHashes() error {
	body := d.Payment.Bytes()
	body = append(body, d.Session.Bytes()...)
	if HashBytes(body) != d.Header.BodyHash {
		return fmt.Errorf("%w: body hash mismatch", ErrInvalidDeploy)
	}
	if HashBytes(d.Header.Bytes()) != d.Hash {
		return fmt.Errorf("%w: deploy hash mismatch", ErrInvalidDeploy)
	}
	return nil
}

// SerializedSize is the canonical size used for the size ceiling check.
func (d *Deploy) SerializedSize() int {
	size := len(d.Header.Bytes()) + DigestLength
	size += len(d.Payment.Bytes()) + len(d.Session.Bytes())
	size += 4
	for _, approval := range d.Approvals {
		size += len(approval.Signer.Bytes()) + len(approval.Signature.Bytes())
	}
	return size
}

// ValidSize returns ErrDeployTooLarge if the serialized deploy exceeds
// MaxDeploySize.
func (d *Deploy) ValidSize() error {
	if size := d.SerializedSize(); size > MaxDeploySize {
		return fmt.Errorf("%w: %d bytes, maximum %d", ErrDeployTooLarge, size, MaxDeploySize)
	}
	return nil
}

// CBOR form. Items and keys are carried in their canonical byte encodings.

type (
	deployCBOR struct {
		_         struct{} `cbor:",toarray"`
		Hash      []byte
		Header    headerCBOR
		Payment   []byte
		Session   []byte
		Approvals []approvalCBOR
	}

	headerCBOR struct {
		_            struct{} `cbor:",toarray"`
		Account      []byte
		Timestamp    uint64
		TTL          uint64
		GasPrice     uint64
		BodyHash     []byte
		Dependencies [][]byte
		ChainName    string
	}

	approvalCBOR struct {
		_         struct{} `cbor:",toarray"`
		Signer    []byte
		Signature []byte
	}
)

func (d *Deploy) MarshalCBOR() ([]byte, error) {
	deps := make([][]byte, 0, len(d.Header.Dependencies))
	for _, dep := range d.Header.Dependencies {
		deps = append(deps, dep.Bytes())
	}
	approvals := make([]approvalCBOR, 0, len(d.Approvals))
	for _, approval := range d.Approvals {
		approvals = append(approvals, approvalCBOR{
			Signer:    approval.Signer.Bytes(),
			Signature: approval.Signature.Bytes(),
		})
	}
	return cbor.Marshal(deployCBOR{
		Hash: d.Hash.Bytes(),
		Header: headerCBOR{
			Account:      d.Header.Account.Bytes(),
			Timestamp:    uint64(d.Header.Timestamp),
			TTL:          uint64(d.Header.TTL),
			GasPrice:     d.Header.GasPrice,
			BodyHash:     d.Header.BodyHash.Bytes(),
			Dependencies: deps,
			ChainName:    d.Header.ChainName,
		},
		Payment:   d.Payment.Bytes(),
		Session:   d.Session.Bytes(),
		Approvals: approvals,
	})
}

func (d *Deploy) UnmarshalCBOR(data []byte) error {
	var dc deployCBOR
	if err := cbor.Unmarshal(data, &dc); err != nil {
		return fmt.Errorf("cbor unmarshal failed, %w", err)
	}
	account, err := crypto.PublicKeyFromBytes(dc.Header.Account)
	if err != nil {
		return fmt.Errorf("decoding deploy account: %w", err)
	}
	payment, err := ItemFromBytes(dc.Payment)
	if err != nil {
		return fmt.Errorf("decoding deploy payment: %w", err)
	}
	session, err := ItemFromBytes(dc.Session)
	if err != nil {
		return fmt.Errorf("decoding deploy session: %w", err)
	}
	deploy := Deploy{
		Header: DeployHeader{
			Account:   account,
			Timestamp: Timestamp(dc.Header.Timestamp),
			TTL:       TimeDiff(dc.Header.TTL),
			GasPrice:  dc.Header.GasPrice,
			ChainName: dc.Header.ChainName,
		},
		Payment: payment,
		Session: session,
	}
	if err := digestFromBytes(dc.Hash, &deploy.Hash); err != nil {
		return fmt.Errorf("decoding deploy hash: %w", err)
	}
	if err := digestFromBytes(dc.Header.BodyHash, &deploy.Header.BodyHash); err != nil {
		return fmt.Errorf("decoding body hash: %w", err)
	}
	for i, dep := range dc.Header.Dependencies {
		var digest Digest
		if err := digestFromBytes(dep, &digest); err != nil {
			return fmt.Errorf("decoding dependency %d: %w", i, err)
		}
		deploy.Header.Dependencies = append(deploy.Header.Dependencies, digest)
	}
	for i, ac := range dc.Approvals {
		signer, err := crypto.PublicKeyFromBytes(ac.Signer)
		if err != nil {
			return fmt.Errorf("decoding approval %d signer: %w", i, err)
		}
		signature, err := crypto.SignatureFromBytes(ac.Signature)
		if err != nil {
			return fmt.Errorf("decoding approval %d signature: %w", i, err)
		}
		deploy.Approvals = append(deploy.Approvals, Approval{Signer: signer, Signature: signature})
	}
	*d = deploy
	return nil
}

func digestFromBytes(b []byte, d *Digest) error {
	if len(b) != DigestLength {
		return fmt.Errorf("digest has %d bytes, expected %d", len(b), DigestLength)
	}
	copy(d[:], b)
	return nil
}
