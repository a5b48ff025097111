// Package normalize normaliza texto libre de facturas (nombres de proveedor,
// descripciones, ciudades) para comparaciones insensibles a mayúsculas y
// tildes: "Ferretería  EL Martillo S.A.S" y "ferreteria el martillo s.a.s"
// producen la misma clave.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks descompone (NFD) y elimina las marcas diacríticas combinantes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key devuelve la forma canónica de s: sin tildes, en minúsculas y con los
// espacios interiores colapsados a uno.
func Key(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s // entrada no normalizable: comparar tal cual
	}
	out = strings.ToLower(strings.TrimSpace(out))
	return strings.Join(strings.Fields(out), " ")
}

// Contains reporta si la forma canónica de s contiene la forma canónica de
// substr. Es la primitiva de los clasificadores por palabra clave.
func Contains(s, substr string) bool {
	return strings.Contains(Key(s), Key(substr))
}
