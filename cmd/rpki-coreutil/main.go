// Command rpki-coreutil wires a YAML run configuration into the
// certificate parser/validator core and exposes it over HTTP/3. There
// is no teacher cmd/ package to ground this on (fancl20/cion ships as
// a library); this entrypoint follows ordinary Go CLI convention: flag
// parsing, zap logger construction, then a blocking ListenAndServe.
package main

import (
	"crypto/tls"
	"crypto/x509"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fancl20/rpki-core/pkg/cert"
	"github.com/fancl20/rpki-core/pkg/config"
	"github.com/fancl20/rpki-core/pkg/trust"
	"github.com/fancl20/rpki-core/pkg/trust/impl/bbolt"
	"github.com/fancl20/rpki-core/pkg/transport"
)

func main() {
	configPath := flag.String("config", "/etc/rpki-coreutil/config.yaml", "path to the YAML run configuration")
	flag.Parse()

	raw, err := os.ReadFile(*configPath)
	if err != nil {
		zap.L().Fatal("read config", zap.String("path", *configPath), zap.Error(err))
	}
	cfg, err := config.Load(raw)
	if err != nil {
		zap.L().Fatal("load config", zap.Error(err))
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.L().Fatal("build logger", zap.Error(err))
	}
	defer log.Sync()

	tree, err := openTree(cfg.StorePath)
	if err != nil {
		log.Fatal("open authority tree", zap.Error(err))
	}
	if closer, ok := tree.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	for _, tal := range cfg.TALs {
		if err := loadTA(tree, tal.Name, tal.Path); err != nil {
			log.Error("load trust anchor", zap.String("tal", tal.Name), zap.String("path", tal.Path), zap.Error(err))
		}
	}

	cache := cert.NewParseCache(time.Duration(cfg.ParseCacheTTLSeconds) * time.Second)
	server := transport.NewServer(cfg.ListenAddr, serverTLSConfig(), tree, cache, log)

	log.Info("rpki-coreutil listening", zap.String("addr", cfg.ListenAddr))
	if err := server.ListenAndServe(); err != nil {
		log.Fatal("serve", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func openTree(storePath string) (trust.Tree, error) {
	if storePath == "" {
		return trust.NewMemory(), nil
	}
	return bbolt.Open(storePath, nil)
}

// loadTA parses a self-signed trust anchor certificate from disk and
// installs it as a root in the authority tree. The TAL entry names the
// certificate file directly rather than a separate RFC 8630 TAL
// document carrying a detached public key: the certificate's own
// SubjectPublicKeyInfo is trusted as the expected key, which is a
// deliberate simplification recorded in DESIGN.md.
func loadTA(tree trust.Tree, tal, path string) error {
	der, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	x, err := x509.ParseCertificate(der)
	if err != nil {
		return err
	}
	expectedPubKey, err := x509.MarshalPKIXPublicKey(x.PublicKey)
	if err != nil {
		return err
	}
	c, err := cert.ParseTA(path, der, tal, expectedPubKey)
	if err != nil {
		return err
	}
	if v, err := trust.ValidateTA(c, tree); err != nil {
		return err
	} else if !v.Valid {
		return errorString(v.Reason)
	}
	return tree.Insert(&trust.Node{Cert: c, TAL: tal, File: path})
}

type errorString string

func (e errorString) Error() string { return string(e) }

// serverTLSConfig is a placeholder; production deployments supply a
// real certificate/key pair here.
func serverTLSConfig() *tls.Config {
	return &tls.Config{}
}
