package deploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/types"
)

var ErrInvalidParams = errors.New("invalid deploy parameters")

type (
	// SessionParams selects and configures the session item of a deploy.
	// Exactly one of Path, Bytes, Hash, Name, PackageHash, PackageName or
	// Transfer must be given.
	SessionParams struct {
		Path        string
		Bytes       []byte
		Hash        string
		Name        string
		PackageHash string
		PackageName string
		Transfer    bool

		EntryPoint string
		Version    string
		ArgsSimple []string
		ArgsJSON   string
	}

	// PaymentParams selects and configures the payment item of a deploy.
	// Exactly one of Amount, Path, Bytes, Hash, Name, PackageHash or
	// PackageName must be given; Amount produces the standard payment.
	PaymentParams struct {
		Amount      string
		Path        string
		Bytes       []byte
		Hash        string
		Name        string
		PackageHash string
		PackageName string

		EntryPoint string
		Version    string
		ArgsSimple []string
		ArgsJSON   string
	}
)

// group is one mutually exclusive selector with its field requirements.
type group struct {
	name          string
	set           bool
	requires      []string
	requiresEmpty []string
}

// checkExactlyOne enforces that exactly one selector of a parameter set is
// given, and that its companion field requirements hold. fields maps a
// companion field name to whether it is set.
func checkExactlyOne(context string, groups []group, fields map[string]bool) (string, error) {
	var selected []string
	for _, g := range groups {
		if g.set {
			selected = append(selected, g.name)
		}
	}
	if len(selected) != 1 {
		names := make([]string, 0, len(groups))
		for _, g := range groups {
			names = append(names, g.name)
		}
		return "", fmt.Errorf("%w: %s requires exactly one of %s, got %d",
			ErrInvalidParams, context, strings.Join(names, ", "), len(selected))
	}
	for _, g := range groups {
		if !g.set {
			continue
		}
		for _, field := range g.requires {
			if !fields[field] {
				return "", fmt.Errorf("%w: %s with %s requires %s",
					ErrInvalidParams, context, g.name, field)
			}
		}
		for _, field := range g.requiresEmpty {
			if fields[field] {
				return "", fmt.Errorf("%w: %s with %s forbids %s",
					ErrInvalidParams, context, g.name, field)
			}
		}
		return g.name, nil
	}
	return "", nil
}

// parseArgs resolves the simple and JSON argument forms, rejecting the
// conflicting case where both are given.
func parseArgs(context string, simple []string, jsonArgs string) (clvalue.Args, error) {
	if len(simple) > 0 && jsonArgs != "" {
		return nil, fmt.Errorf("%w: %s accepts simple args or JSON args, not both", ErrInvalidParams, context)
	}
	if jsonArgs != "" {
		var args clvalue.Args
		if err := json.Unmarshal([]byte(jsonArgs), &args); err != nil {
			return nil, fmt.Errorf("%s JSON args: %w", context, err)
		}
		return args, nil
	}
	args, err := clvalue.NewArgs(simple)
	if err != nil {
		return nil, fmt.Errorf("%s args: %w", context, err)
	}
	return args, nil
}

func parseVersion(context, value string) (*uint32, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %s version %q is not a u32", ErrInvalidParams, context, value)
	}
	version := uint32(v)
	return &version, nil
}

func moduleBytes(context, path string, raw []byte) ([]byte, error) {
	if len(raw) > 0 {
		return raw, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s module file: %w", context, err)
	}
	return b, nil
}

// Item resolves the session parameters into an executable deploy item.
func (p SessionParams) Item() (types.ExecutableDeployItem, error) {
	const context = "session"
	fields := map[string]bool{
		"entry-point": p.EntryPoint != "",
		"version":     p.Version != "",
		"path":        p.Path != "",
		"bytes":       len(p.Bytes) > 0,
	}
	selected, err := checkExactlyOne(context, []group{
		{name: "hash", set: p.Hash != "", requires: []string{"entry-point"}, requiresEmpty: []string{"version"}},
		{name: "name", set: p.Name != "", requires: []string{"entry-point"}, requiresEmpty: []string{"version"}},
		{name: "package-hash", set: p.PackageHash != "", requires: []string{"entry-point"}},
		{name: "package-name", set: p.PackageName != "", requires: []string{"entry-point"}},
		{name: "path", set: p.Path != "", requiresEmpty: []string{"entry-point", "version", "bytes"}},
		{name: "bytes", set: len(p.Bytes) > 0, requiresEmpty: []string{"entry-point", "version", "path"}},
		{name: "transfer", set: p.Transfer, requiresEmpty: []string{"entry-point", "version"}},
	}, fields)
	if err != nil {
		return types.ExecutableDeployItem{}, err
	}

	args, err := parseArgs(context, p.ArgsSimple, p.ArgsJSON)
	if err != nil {
		return types.ExecutableDeployItem{}, err
	}

	switch selected {
	case "transfer":
		if len(args) == 0 {
			return types.ExecutableDeployItem{}, fmt.Errorf(
				"%w: session transfer requires arguments", ErrInvalidParams)
		}
		return NewTransferItem(args)
	case "hash":
		hash, err := types.ParseDigest(p.Hash)
		if err != nil {
			return types.ExecutableDeployItem{}, fmt.Errorf("session hash: %w", err)
		}
		return types.NewStoredContractByHash(hash, p.EntryPoint, args), nil
	case "name":
		return types.NewStoredContractByName(p.Name, p.EntryPoint, args), nil
	case "package-hash":
		hash, err := types.ParseDigest(p.PackageHash)
		if err != nil {
			return types.ExecutableDeployItem{}, fmt.Errorf("session package hash: %w", err)
		}
		version, err := parseVersion(context, p.Version)
		if err != nil {
			return types.ExecutableDeployItem{}, err
		}
		return types.NewStoredVersionedContractByHash(hash, version, p.EntryPoint, args), nil
	case "package-name":
		version, err := parseVersion(context, p.Version)
		if err != nil {
			return types.ExecutableDeployItem{}, err
		}
		return types.NewStoredVersionedContractByName(p.PackageName, version, p.EntryPoint, args), nil
	default: // path or bytes
		b, err := moduleBytes(context, p.Path, p.Bytes)
		if err != nil {
			return types.ExecutableDeployItem{}, err
		}
		return types.NewModuleBytes(b, args), nil
	}
}

// Item resolves the payment parameters into an executable deploy item.
func (p PaymentParams) Item() (types.ExecutableDeployItem, error) {
	const context = "payment"
	fields := map[string]bool{
		"entry-point": p.EntryPoint != "",
		"version":     p.Version != "",
		"path":        p.Path != "",
		"bytes":       len(p.Bytes) > 0,
	}
	selected, err := checkExactlyOne(context, []group{
		{name: "amount", set: p.Amount != "", requiresEmpty: []string{"entry-point", "version"}},
		{name: "hash", set: p.Hash != "", requires: []string{"entry-point"}, requiresEmpty: []string{"version"}},
		{name: "name", set: p.Name != "", requires: []string{"entry-point"}, requiresEmpty: []string{"version"}},
		{name: "package-hash", set: p.PackageHash != "", requires: []string{"entry-point"}},
		{name: "package-name", set: p.PackageName != "", requires: []string{"entry-point"}},
		{name: "path", set: p.Path != "", requiresEmpty: []string{"entry-point", "version", "bytes"}},
		{name: "bytes", set: len(p.Bytes) > 0, requiresEmpty: []string{"entry-point", "version", "path"}},
	}, fields)
	if err != nil {
		return types.ExecutableDeployItem{}, err
	}

	args, err := parseArgs(context, p.ArgsSimple, p.ArgsJSON)
	if err != nil {
		return types.ExecutableDeployItem{}, err
	}

	switch selected {
	case "amount":
		arg, err := clvalue.ParseSimple("amount:u512='" + p.Amount + "'")
		if err != nil {
			return types.ExecutableDeployItem{}, fmt.Errorf("payment amount: %w", err)
		}
		return types.NewStandardPayment(arg.Value)
	case "hash":
		hash, err := types.ParseDigest(p.Hash)
		if err != nil {
			return types.ExecutableDeployItem{}, fmt.Errorf("payment hash: %w", err)
		}
		return types.NewStoredContractByHash(hash, p.EntryPoint, args), nil
	case "name":
		return types.NewStoredContractByName(p.Name, p.EntryPoint, args), nil
	case "package-hash":
		hash, err := types.ParseDigest(p.PackageHash)
		if err != nil {
			return types.ExecutableDeployItem{}, fmt.Errorf("payment package hash: %w", err)
		}
		version, err := parseVersion(context, p.Version)
		if err != nil {
			return types.ExecutableDeployItem{}, err
		}
		return types.NewStoredVersionedContractByHash(hash, version, p.EntryPoint, args), nil
	case "package-name":
		version, err := parseVersion(context, p.Version)
		if err != nil {
			return types.ExecutableDeployItem{}, err
		}
		return types.NewStoredVersionedContractByName(p.PackageName, version, p.EntryPoint, args), nil
	default: // path or bytes
		b, err := moduleBytes(context, p.Path, p.Bytes)
		if err != nil {
			return types.ExecutableDeployItem{}, err
		}
		return types.NewModuleBytes(b, args), nil
	}
}
