package voice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// PiperConfig holds configuration for the local Piper TTS backend.
type PiperConfig struct {
	BinPath  string // default: "piper"
	ModelDir string // directory of .onnx voice models
}

// Piper synthesizes speech by invoking the Piper binary as a subprocess.
// One invocation per segment; the model file is mmapped by Piper itself, so
// a Handle only records the resolved model path.
type Piper struct {
	cfg PiperConfig
}

// NewPiper creates a Piper provider backed by a local binary.
func NewPiper(cfg PiperConfig) *Piper {
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	return &Piper{cfg: cfg}
}

func (p *Piper) Name() string { return "local-piper" }

// Load resolves a voice id to its model file. Unknown ids fail here, before
// any synthesis work is admitted.
func (p *Piper) Load(_ context.Context, voiceID string) (*Handle, error) {
	if strings.ContainsAny(voiceID, "/\\") {
		return nil, fmt.Errorf("invalid voice id %q", voiceID)
	}

	modelPath := filepath.Join(p.cfg.ModelDir, voiceID+".onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("voice model %s: %w", voiceID, err)
	}

	return &Handle{ID: voiceID, ModelPath: modelPath}, nil
}

// Synthesize pipes text into Piper via stdin and returns the WAV output
// from stdout.
func (p *Piper) Synthesize(ctx context.Context, h *Handle, text string, lengthScale float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.cfg.BinPath,
		"--model", h.ModelPath,
		"--length_scale", strconv.FormatFloat(lengthScale, 'f', 2, 64),
		"--output_file", "-",
	)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// Voices lists the installed voice models.
func (p *Piper) Voices() ([]Voice, error) {
	matches, err := filepath.Glob(filepath.Join(p.cfg.ModelDir, "*.onnx"))
	if err != nil {
		return nil, fmt.Errorf("scan voice models: %w", err)
	}

	voices := make([]Voice, 0, len(matches))
	for _, m := range matches {
		id := strings.TrimSuffix(filepath.Base(m), ".onnx")
		voices = append(voices, parseVoiceID(id))
	}
	return voices, nil
}

// parseVoiceID extracts catalog fields from ids shaped like
// "en_US-amy-medium". Ids that don't match still produce a usable entry.
func parseVoiceID(id string) Voice {
	v := Voice{ID: id, Name: id}
	parts := strings.SplitN(id, "-", 3)
	if len(parts) >= 2 {
		v.Locale = strings.Replace(parts[0], "_", "-", 1)
		v.Name = parts[1]
	}
	return v
}
