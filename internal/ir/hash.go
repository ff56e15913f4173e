package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// DomainCatalog separates catalog fingerprints from any other hash of the
// same bytes. The version suffix allows the algorithm to change later.
const DomainCatalog = "apigen/catalog/v1"

// SchemaNamespace is the UUID namespace schema IDs are derived in.
var SchemaNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/apigen/schema"))

// hashWithDomain computes SHA256(domain || 0x00 || data). The separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint is the content hash of the catalog's canonical form. It is
// stable across runs and independent of source positions and file format.
func Fingerprint(c *Catalog) (string, error) {
	canonical, err := MarshalCanonical(c.Canonical())
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}

// SchemaID derives a name-based (version 5) UUID from the fingerprint. It is
// stamped into generated files so outputs of one schema can be matched.
func SchemaID(c *Catalog) (uuid.UUID, error) {
	fp, err := Fingerprint(c)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.NewSHA1(SchemaNamespace, []byte(fp)), nil
}
