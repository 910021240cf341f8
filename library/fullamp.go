package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Houston4444/OsciTronix/vox"
)

// FullAmp is every user-writable slot of the amplifier. Banks and AmpFX hold at most
// vox.UserBankCount and vox.AmpFXCount entries; fewer means the file only covered the
// first slots.
type FullAmp struct {
	Banks   []vox.Program
	AmpFX   []vox.Program
	Current *vox.Program
}

type fullAmpJSON struct {
	Banks   []json.RawMessage `json:"banks"`
	AmpFXs  []json.RawMessage `json:"ampfxs,omitempty"`
	Current json.RawMessage   `json:"current_program,omitempty"`
}

// WriteFullAmp writes banks as full programs and AmpFX presets in their compact flavour.
func WriteFullAmp(path string, fa FullAmp) error {
	var j fullAmpJSON
	for _, p := range fa.Banks {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		j.Banks = append(j.Banks, data)
	}
	for _, p := range fa.AmpFX {
		data, err := vox.EncodeJSON(p, true)
		if err != nil {
			return err
		}
		j.AmpFXs = append(j.AmpFXs, bytes.TrimSpace(data))
	}
	if fa.Current != nil {
		data, err := json.Marshal(*fa.Current)
		if err != nil {
			return err
		}
		j.Current = data
	}

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadFullAmp reads a full-amp file. Entries past the amplifier's slot counts are ignored.
//
// AmpFX preset n is read from banks entry n, not from the ampfxs list: the ampfxs list only
// decides how many presets are imported. Files whose banks list is shorter than that are
// rejected.
func ReadFullAmp(path string) (FullAmp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FullAmp{}, err
	}
	var j fullAmpJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return FullAmp{}, fmt.Errorf("%w %s: %w", ErrInvalidFile, path, err)
	}

	var fa FullAmp
	for n, raw := range j.Banks {
		if n >= vox.UserBankCount {
			break
		}
		p, err := decodeEntry(path, raw)
		if err != nil {
			return FullAmp{}, fmt.Errorf("bank %d: %w", n, err)
		}
		fa.Banks = append(fa.Banks, p)
	}

	for n := range j.AmpFXs {
		if n >= vox.AmpFXCount {
			break
		}
		if n >= len(j.Banks) {
			return FullAmp{}, fmt.Errorf("%w %s: ampfx %d has no matching bank", ErrInvalidFile, path, n)
		}
		fa.AmpFX = append(fa.AmpFX, fa.Banks[n].AmpFX())
	}

	if len(j.Current) > 0 && !bytes.Equal(bytes.TrimSpace(j.Current), []byte("null")) {
		p, err := decodeEntry(path, j.Current)
		if err != nil {
			return FullAmp{}, fmt.Errorf("current program: %w", err)
		}
		fa.Current = &p
	}
	return fa, nil
}

func decodeEntry(path string, raw json.RawMessage) (vox.Program, error) {
	p, clamped, err := vox.DecodeJSON(raw, false)
	if err != nil {
		return vox.Program{}, fmt.Errorf("%w %s: %w", ErrInvalidFile, path, err)
	}
	for _, c := range clamped {
		log.Warn("Value out of range", "file", path, "field", c.Field, "from", c.From, "to", c.To)
	}
	return p, nil
}
