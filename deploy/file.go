package deploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/casper-ecosystem/casper-client-go/types"
)

// Format selects the on-disk encoding of a deploy file.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

var ErrFileExists = errors.New("file already exists")

// WriteFile persists a deploy transactionally: the content is written to a
// temp file in the target directory, synced, and renamed over the target.
// An existing target is refused unless force is set. The temp file is removed
// on every failure path.
func WriteFile(path string, deploy *types.Deploy, format Format, force bool) (err error) {
	if !force {
		if _, statErr := os.Stat(path); statErr == nil {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("checking deploy file %s: %w", path, statErr)
		}
	}

	data, err := Marshal(deploy, format)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp deploy file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing deploy file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing deploy file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing deploy file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming deploy file into place: %w", err)
	}
	return nil
}

// ReadFile loads a deploy file in either format, detected from the content.
func ReadFile(path string) (*types.Deploy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deploy file: %w", err)
	}
	deploy, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("deploy file %s: %w", path, err)
	}
	return deploy, nil
}

// Marshal encodes a deploy in the given format. JSON output is indented for
// readability, matching the node's own rendering of deploys.
func Marshal(deploy *types.Deploy, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(deploy, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding deploy as JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatCBOR:
		data, err := cbor.Marshal(deploy)
		if err != nil {
			return nil, fmt.Errorf("encoding deploy as CBOR: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown deploy file format %q", format)
	}
}

// Unmarshal decodes a deploy from either format and verifies its hashes.
func Unmarshal(data []byte) (*types.Deploy, error) {
	if len(data) == 0 {
		return nil, errors.New("deploy file is empty")
	}
	var deploy types.Deploy
	if data[0] == '{' {
		if err := json.Unmarshal(data, &deploy); err != nil {
			return nil, fmt.Errorf("decoding JSON deploy: %w", err)
		}
	} else if err := cbor.Unmarshal(data, &deploy); err != nil {
		return nil, fmt.Errorf("decoding CBOR deploy: %w", err)
	}
	if err := deploy.VerifyHashes(); err != nil {
		return nil, err
	}
	return &deploy, nil
}
