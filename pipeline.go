package sealfile

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

const (
	opEncrypt = "encrypt"
	opDecrypt = "decrypt"
	opVerify  = "verify"
)

// Pipeline composes key derivation, the archive codec, the AEAD and the
// container framing into Encrypt, Decrypt and Verify. A Pipeline holds no
// per-call state and is safe for concurrent use as long as its RandomSource
// is.
type Pipeline struct {
	config  Config
	deriver KeyDeriver
	random  RandomSource
	logger  Logger
	archive ArchiveCodec
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithConfig replaces the default configuration
func WithConfig(config Config) Option {
	return func(p *Pipeline) {
		p.config = config
	}
}

// WithKeyDeriver replaces the PBKDF2 key deriver built from Config.KDF
func WithKeyDeriver(deriver KeyDeriver) Option {
	return func(p *Pipeline) {
		p.deriver = deriver
	}
}

// WithRandom sets the source of salts and nonces
func WithRandom(random RandomSource) Option {
	return func(p *Pipeline) {
		p.random = random
	}
}

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline. Without options it reads and writes standard
// containers: PBKDF2-HMAC-SHA256 with DefaultIterations and AES-256-GCM.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{config: DefaultConfig()}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	if p.deriver == nil {
		p.deriver = NewPBKDF2Deriver(p.config.KDF)
	}
	if p.random == nil {
		p.random = SystemRandom()
	}
	if p.logger == nil {
		p.logger = NopLogger()
	}
	p.archive = ArchiveCodec{AllowEmptyPayload: p.config.AllowEmptyPayload}

	return p, nil
}

// Config returns a copy of the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.config
}

// Encrypt packs data under name, seals it with a key derived from password
// and a fresh salt, and returns the framed container.
func (p *Pipeline) Encrypt(name string, data []byte, password string) ([]byte, error) {
	if err := ValidatePassword(opEncrypt, password); err != nil {
		return nil, err
	}
	pw := NewSecureString(password)
	defer pw.Wipe()

	archive, err := p.archive.Pack(name, data)
	if err != nil {
		return nil, errors.Wrap(err, opEncrypt)
	}
	defer SecureZero(archive)

	container, err := p.seal(pw, archive)
	if err != nil {
		return nil, errors.Wrap(err, opEncrypt)
	}

	p.logger.WithField("op", opEncrypt).Debugf("sealed %q: %d bytes -> %d byte archive -> %d byte container",
		name, len(data), len(archive), len(container))
	return container, nil
}

// Decrypt parses container, opens it with a key derived from password and
// returns the original name and contents. A wrong password and a tampered
// container both fail with an *AuthenticationError.
func (p *Pipeline) Decrypt(container []byte, password string) (string, []byte, error) {
	if err := ValidatePassword(opDecrypt, password); err != nil {
		return "", nil, err
	}

	c, err := Parse(container)
	if err != nil {
		return "", nil, errors.Wrap(err, opDecrypt)
	}

	pw := NewSecureString(password)
	defer pw.Wipe()

	log := p.logger.WithField("op", opDecrypt)

	archive, err := p.open(pw, c)
	if err != nil {
		log.Debugf("open failed: %v", err)
		return "", nil, errors.Wrap(err, opDecrypt)
	}
	defer SecureZero(archive)

	name, data, err := p.archive.Unpack(archive)
	if err != nil {
		log.Warnf("authenticated payload rejected: %v", err)
		return "", nil, errors.Wrap(err, opDecrypt)
	}

	log.Debugf("opened %q: %d byte container -> %d bytes", name, len(container), len(data))
	return name, data, nil
}

// VerifyReport describes one Verify run. Detail is meant for logs.
type VerifyReport struct {
	OK            bool
	Mismatch      bool // opened fine but recovered different bytes
	ArchiveSize   int
	ContainerSize int
	Detail        string
}

// Verify seals data under a fresh salt and nonce, opens the result again and
// checks that the recovered archive is byte-identical to the packed one. Only
// input errors are returned as errors; any other failure is reported with
// OK false.
func (p *Pipeline) Verify(data []byte, password string) (*VerifyReport, error) {
	if err := ValidatePassword(opVerify, password); err != nil {
		return nil, err
	}
	pw := NewSecureString(password)
	defer pw.Wipe()

	log := p.logger.WithField("op", opVerify)
	report := new(VerifyReport)

	archive, err := p.archive.Pack(VerifyEntryName, data)
	if err != nil {
		return nil, errors.Wrap(err, opVerify)
	}
	defer SecureZero(archive)
	report.ArchiveSize = len(archive)

	stored, err := p.seal(pw, archive)
	if err != nil {
		return nil, errors.Wrap(err, opVerify)
	}
	report.ContainerSize = len(stored)

	c, err := Parse(stored)
	if err != nil {
		report.Detail = fmt.Sprintf("roundtrip parse failed: %v", err)
		log.Errorf("%s", report.Detail)
		return report, nil
	}

	recovered, err := p.open(pw, c)
	if err != nil {
		report.Detail = fmt.Sprintf("roundtrip decryption failed: %v", err)
		log.Errorf("%s", report.Detail)
		return report, nil
	}
	defer SecureZero(recovered)

	if !bytes.Equal(recovered, archive) {
		report.Mismatch = true
		report.Detail = fmt.Sprintf("roundtrip mismatch: lengths %d vs %d", len(archive), len(recovered))
		log.Errorf("%s", report.Detail)
		return report, nil
	}

	report.OK = true
	report.Detail = "ok"
	return report, nil
}

// seal generates a fresh salt and nonce and frames the sealed plaintext.
func (p *Pipeline) seal(pw *SecureBuffer, plaintext []byte) ([]byte, error) {
	salt, err := readRandom(p.random, SaltSize, "salt")
	if err != nil {
		return nil, err
	}
	nonce, err := readRandom(p.random, NonceSize, "nonce")
	if err != nil {
		return nil, err
	}

	engine, err := p.engine(pw, salt)
	if err != nil {
		return nil, err
	}

	ciphertext, err := engine.Seal(nonce, plaintext)
	if err != nil {
		return nil, err
	}
	return Frame(salt, nonce, ciphertext), nil
}

// open derives the key for c and returns the authenticated plaintext.
func (p *Pipeline) open(pw *SecureBuffer, c *Container) ([]byte, error) {
	engine, err := p.engine(pw, c.Salt)
	if err != nil {
		return nil, err
	}
	return engine.Open(c.Nonce, c.Ciphertext)
}

// engine derives a key and builds the configured AEAD. The raw key is wiped
// once the cipher has expanded it.
func (p *Pipeline) engine(pw *SecureBuffer, salt []byte) (CipherEngine, error) {
	raw, err := p.deriver.DeriveKey(pw.Bytes(), salt)
	if err != nil {
		return nil, errors.Wrap(err, "derive key")
	}
	key := adoptSecureBuffer(raw)
	defer key.Wipe()

	return NewCipherEngine(p.config.Cipher, key.Bytes())
}

// SealedName returns the download name for a container sealed from name.
func SealedName(name string) string {
	if name == "" {
		name = DefaultEntryName
	}
	return name + EncryptedSuffix
}
