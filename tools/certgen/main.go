// Package main writes a development CA and a server certificate for the
// AlphaBase API. An existing CA in the output directory is reused, so
// consoles that already trust it keep working.
//
//	certgen -dir certs -hosts localhost,127.0.0.1
//	server -tls-cert certs/server.crt -tls-key certs/server.key
//	console -api https://localhost:8000 -ws wss://localhost:8000 -ca certs/ca.crt
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/alphabase/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	validFor := flag.Duration("valid-for", 365*24*time.Hour, "server certificate lifetime")
	flag.Parse()

	if err := run(*dir, splitHosts(*hosts), *validFor); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Certificates written to ./%s\n", *dir)
}

func run(dir string, hosts []string, validFor time.Duration) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	caCert, caKey := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	ca, err := certgen.LoadAuthority(caCert, caKey)
	if errors.Is(err, fs.ErrNotExist) {
		if ca, err = certgen.NewAuthority("AlphaBase Dev CA"); err != nil {
			return err
		}
		certPEM, keyPEM, err := ca.PEM()
		if err != nil {
			return err
		}
		if err := writePair(caCert, caKey, certPEM, keyPEM); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	certPEM, keyPEM, err := ca.IssueServer(hosts, validFor)
	if err != nil {
		return err
	}
	return writePair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), certPEM, keyPEM)
}

func writePair(certPath, keyPath string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return err
	}
	return os.WriteFile(keyPath, keyPEM, 0o600)
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
