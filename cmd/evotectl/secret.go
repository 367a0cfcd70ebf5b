package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"
)

const SecretKeyBytesLen = 32

func runSecret(out io.Writer) error {
	b := make([]byte, SecretKeyBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		return fmt.Errorf("error while generating secret key: %w", err)
	}

	_, err = fmt.Fprintln(out, hex.EncodeToString(b))
	return err
}

func runHashKey(args []string, out io.Writer) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("%w: hash-key expects exactly one key", errUsage)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error while hashing key: %w", err)
	}

	_, err = fmt.Fprintln(out, string(hash))
	return err
}
