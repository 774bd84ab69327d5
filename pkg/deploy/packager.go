package deploy

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"time"
)

// BuildPackage monta em memória o zip de deploy com o binário como
// "bootstrap" (contrato do runtime provided.al2023), com bit de execução.
func BuildPackage(binaryPath string) ([]byte, error) {
	binary, err := os.ReadFile(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("deploy: read binary %s: %w", binaryPath, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	header := &zip.FileHeader{
		Name:     "bootstrap",
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	header.SetMode(0o755)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("deploy: create zip entry: %w", err)
	}
	if _, err := w.Write(binary); err != nil {
		return nil, fmt.Errorf("deploy: write zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deploy: close zip: %w", err)
	}

	return buf.Bytes(), nil
}
