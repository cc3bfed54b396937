package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
)

// Tag bytes of the canonical ExecutableDeployItem encoding.
const (
	itemTagModuleBytes byte = iota
	itemTagStoredContractByHash
	itemTagStoredContractByName
	itemTagStoredVersionedContractByHash
	itemTagStoredVersionedContractByName
	itemTagTransfer
)

// ExecutableDeployItem is the payment or session code of a deploy. Exactly one
// variant is populated, identified by tag.
type ExecutableDeployItem struct {
	tag         byte
	moduleBytes []byte
	hash        Digest
	name        string
	version     *uint32
	entryPoint  string
	args        clvalue.Args
}

func NewModuleBytes(moduleBytes []byte, args clvalue.Args) ExecutableDeployItem {
	return ExecutableDeployItem{
		tag:         itemTagModuleBytes,
		moduleBytes: bytes.Clone(moduleBytes),
		args:        args,
	}
}

func NewStoredContractByHash(hash Digest, entryPoint string, args clvalue.Args) ExecutableDeployItem {
	return ExecutableDeployItem{
		tag:        itemTagStoredContractByHash,
		hash:       hash,
		entryPoint: entryPoint,
		args:       args,
	}
}

func NewStoredContractByName(name, entryPoint string, args clvalue.Args) ExecutableDeployItem {
	return ExecutableDeployItem{
		tag:        itemTagStoredContractByName,
		name:       name,
		entryPoint: entryPoint,
		args:       args,
	}
}

// NewStoredVersionedContractByHash references a contract package. A nil
// version selects the highest enabled one.
func NewStoredVersionedContractByHash(hash Digest, version *uint32, entryPoint string, args clvalue.Args) ExecutableDeployItem {
	return ExecutableDeployItem{
		tag:        itemTagStoredVersionedContractByHash,
		hash:       hash,
		version:    version,
		entryPoint: entryPoint,
		args:       args,
	}
}

func NewStoredVersionedContractByName(name string, version *uint32, entryPoint string, args clvalue.Args) ExecutableDeployItem {
	return ExecutableDeployItem{
		tag:        itemTagStoredVersionedContractByName,
		name:       name,
		version:    version,
		entryPoint: entryPoint,
		args:       args,
	}
}

func NewTransfer(args clvalue.Args) ExecutableDeployItem {
	return ExecutableDeployItem{tag: itemTagTransfer, args: args}
}

// NewStandardPayment builds the conventional payment item: empty module bytes
// with a single u512 "amount" argument.
func NewStandardPayment(amount clvalue.Value) (ExecutableDeployItem, error) {
	if !amount.Type().Equal(clvalue.U512) {
		return ExecutableDeployItem{}, fmt.Errorf("payment amount must be u512, got %s", amount.Type())
	}
	var args clvalue.Args
	if err := args.Insert("amount", amount); err != nil {
		return ExecutableDeployItem{}, err
	}
	return NewModuleBytes(nil, args), nil
}

func (item ExecutableDeployItem) IsModuleBytes() bool { return item.tag == itemTagModuleBytes }
func (item ExecutableDeployItem) IsTransfer() bool    { return item.tag == itemTagTransfer }

func (item ExecutableDeployItem) Args() clvalue.Args { return item.args }

// Bytes returns the canonical encoding: the variant tag followed by the
// variant's fields in declaration order.
func (item ExecutableDeployItem) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(item.tag)
	switch item.tag {
	case itemTagModuleBytes:
		writeByteSlice(&buf, item.moduleBytes)
	case itemTagStoredContractByHash:
		buf.Write(item.hash[:])
		writeString(&buf, item.entryPoint)
	case itemTagStoredContractByName:
		writeString(&buf, item.name)
		writeString(&buf, item.entryPoint)
	case itemTagStoredVersionedContractByHash:
		buf.Write(item.hash[:])
		writeVersion(&buf, item.version)
		writeString(&buf, item.entryPoint)
	case itemTagStoredVersionedContractByName:
		writeString(&buf, item.name)
		writeVersion(&buf, item.version)
		writeString(&buf, item.entryPoint)
	}
	buf.Write(item.args.Bytes())
	return buf.Bytes()
}

// ItemFromBytes decodes a canonical item encoding, rejecting trailing bytes.
func ItemFromBytes(b []byte) (ExecutableDeployItem, error) {
	r := bytes.NewReader(b)
	item, err := readItem(r)
	if err != nil {
		return ExecutableDeployItem{}, err
	}
	if r.Len() != 0 {
		return ExecutableDeployItem{}, fmt.Errorf("%d trailing bytes after deploy item", r.Len())
	}
	return item, nil
}

func readItem(r *bytes.Reader) (ExecutableDeployItem, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return ExecutableDeployItem{}, fmt.Errorf("reading deploy item tag: %w", err)
	}
	item := ExecutableDeployItem{tag: tag}
	switch tag {
	case itemTagModuleBytes:
		if item.moduleBytes, err = readByteSlice(r); err != nil {
			return ExecutableDeployItem{}, fmt.Errorf("reading module bytes: %w", err)
		}
	case itemTagStoredContractByHash:
		if err = readDigest(r, &item.hash); err == nil {
			item.entryPoint, err = readString(r)
		}
	case itemTagStoredContractByName:
		if item.name, err = readString(r); err == nil {
			item.entryPoint, err = readString(r)
		}
	case itemTagStoredVersionedContractByHash:
		if err = readDigest(r, &item.hash); err == nil {
			if item.version, err = readVersion(r); err == nil {
				item.entryPoint, err = readString(r)
			}
		}
	case itemTagStoredVersionedContractByName:
		if item.name, err = readString(r); err == nil {
			if item.version, err = readVersion(r); err == nil {
				item.entryPoint, err = readString(r)
			}
		}
	case itemTagTransfer:
	default:
		return ExecutableDeployItem{}, fmt.Errorf("unknown deploy item tag %d", tag)
	}
	if err != nil {
		return ExecutableDeployItem{}, fmt.Errorf("reading deploy item fields: %w", err)
	}
	argBytes := make([]byte, r.Len())
	if _, err := r.Read(argBytes); err != nil && len(argBytes) > 0 {
		return ExecutableDeployItem{}, err
	}
	if item.args, err = clvalue.ArgsFromBytes(argBytes); err != nil {
		return ExecutableDeployItem{}, fmt.Errorf("reading deploy item args: %w", err)
	}
	return item, nil
}

// JSON rendering follows the node schema: one variant name keying an object of
// the variant's fields.

type moduleBytesJSON struct {
	ModuleBytes string       `json:"module_bytes"`
	Args        clvalue.Args `json:"args"`
}

type storedByHashJSON struct {
	Hash       string       `json:"hash"`
	EntryPoint string       `json:"entry_point"`
	Args       clvalue.Args `json:"args"`
}

type storedByNameJSON struct {
	Name       string       `json:"name"`
	EntryPoint string       `json:"entry_point"`
	Args       clvalue.Args `json:"args"`
}

type storedVersionedByHashJSON struct {
	Hash       string       `json:"hash"`
	Version    *uint32      `json:"version"`
	EntryPoint string       `json:"entry_point"`
	Args       clvalue.Args `json:"args"`
}

type storedVersionedByNameJSON struct {
	Name       string       `json:"name"`
	Version    *uint32      `json:"version"`
	EntryPoint string       `json:"entry_point"`
	Args       clvalue.Args `json:"args"`
}

type transferJSON struct {
	Args clvalue.Args `json:"args"`
}

func (item ExecutableDeployItem) MarshalJSON() ([]byte, error) {
	switch item.tag {
	case itemTagModuleBytes:
		return json.Marshal(map[string]moduleBytesJSON{"ModuleBytes": {
			ModuleBytes: hex.EncodeToString(item.moduleBytes),
			Args:        item.args,
		}})
	case itemTagStoredContractByHash:
		return json.Marshal(map[string]storedByHashJSON{"StoredContractByHash": {
			Hash:       item.hash.String(),
			EntryPoint: item.entryPoint,
			Args:       item.args,
		}})
	case itemTagStoredContractByName:
		return json.Marshal(map[string]storedByNameJSON{"StoredContractByName": {
			Name:       item.name,
			EntryPoint: item.entryPoint,
			Args:       item.args,
		}})
	case itemTagStoredVersionedContractByHash:
		return json.Marshal(map[string]storedVersionedByHashJSON{"StoredVersionedContractByHash": {
			Hash:       item.hash.String(),
			Version:    item.version,
			EntryPoint: item.entryPoint,
			Args:       item.args,
		}})
	case itemTagStoredVersionedContractByName:
		return json.Marshal(map[string]storedVersionedByNameJSON{"StoredVersionedContractByName": {
			Name:       item.name,
			Version:    item.version,
			EntryPoint: item.entryPoint,
			Args:       item.args,
		}})
	case itemTagTransfer:
		return json.Marshal(map[string]transferJSON{"Transfer": {Args: item.args}})
	default:
		return nil, fmt.Errorf("unknown deploy item tag %d", item.tag)
	}
}

func (item *ExecutableDeployItem) UnmarshalJSON(data []byte) error {
	var variants map[string]json.RawMessage
	if err := json.Unmarshal(data, &variants); err != nil {
		return fmt.Errorf("decoding deploy item: %w", err)
	}
	if len(variants) != 1 {
		return fmt.Errorf("deploy item must have exactly one variant, got %d", len(variants))
	}
	for variant, body := range variants {
		switch variant {
		case "ModuleBytes":
			var v moduleBytesJSON
			if err := json.Unmarshal(body, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", variant, err)
			}
			moduleBytes, err := hex.DecodeString(v.ModuleBytes)
			if err != nil {
				return fmt.Errorf("decoding %s module_bytes: %w", variant, err)
			}
			*item = NewModuleBytes(moduleBytes, v.Args)
		case "StoredContractByHash":
			var v storedByHashJSON
			if err := json.Unmarshal(body, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", variant, err)
			}
			hash, err := ParseDigest(v.Hash)
			if err != nil {
				return fmt.Errorf("decoding %s hash: %w", variant, err)
			}
			*item = NewStoredContractByHash(hash, v.EntryPoint, v.Args)
		case "StoredContractByName":
			var v storedByNameJSON
			if err := json.Unmarshal(body, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", variant, err)
			}
			*item = NewStoredContractByName(v.Name, v.EntryPoint, v.Args)
		case "StoredVersionedContractByHash":
			var v storedVersionedByHashJSON
			if err := json.Unmarshal(body, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", variant, err)
			}
			hash, err := ParseDigest(v.Hash)
			if err != nil {
				return fmt.Errorf("decoding %s hash: %w", variant, err)
			}
			*item = NewStoredVersionedContractByHash(hash, v.Version, v.EntryPoint, v.Args)
		case "StoredVersionedContractByName":
			var v storedVersionedByNameJSON
			if err := json.Unmarshal(body, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", variant, err)
			}
			*item = NewStoredVersionedContractByName(v.Name, v.Version, v.EntryPoint, v.Args)
		case "Transfer":
			var v transferJSON
			if err := json.Unmarshal(body, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", variant, err)
			}
			*item = NewTransfer(v.Args)
		default:
			return fmt.Errorf("unknown deploy item variant %q", variant)
		}
	}
	return nil
}

func writeByteSlice(buf *bytes.Buffer, b []byte) {
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(b)))
	buf.Write(length[:])
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	writeByteSlice(buf, []byte(s))
}

// writeVersion encodes an optional u32 contract version.
func writeVersion(buf *bytes.Buffer, version *uint32) {
	if version == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], *version)
	buf.Write(v[:])
}

func readByteSlice(r *bytes.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := readFull(r, length[:]); err != nil {
		return nil, err
	}
	b := make([]byte, binary.LittleEndian.Uint32(length[:]))
	if _, err := readFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readByteSlice(r)
	return string(b), err
}

func readVersion(r *bytes.Reader) (*uint32, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		var b [4]byte
		if _, err := readFull(r, b[:]); err != nil {
			return nil, err
		}
		v := binary.LittleEndian.Uint32(b[:])
		return &v, nil
	default:
		return nil, fmt.Errorf("option tag must be 0 or 1, got %d", tag)
	}
}

func readDigest(r *bytes.Reader, d *Digest) error {
	_, err := readFull(r, d[:])
	return err
}
