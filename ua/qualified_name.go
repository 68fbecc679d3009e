package ua

import (
	"fmt"
	"strconv"
	"strings"
)

// QualifiedName is a name qualified by a namespace index.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

// NewQualifiedName makes a QualifiedName.
func NewQualifiedName(ns uint16, name string) QualifiedName {
	return QualifiedName{ns, name}
}

// ParseQualifiedName parses "2:Demo" into a QualifiedName.
func ParseQualifiedName(s string) QualifiedName {
	if i := strings.Index(s, ":"); i > 0 {
		if ns, err := strconv.ParseUint(s[:i], 10, 16); err == nil {
			return QualifiedName{uint16(ns), s[i+1:]}
		}
	}
	return QualifiedName{0, s}
}

func (q QualifiedName) String() string {
	if q.NamespaceIndex == 0 {
		return q.Name
	}
	return fmt.Sprintf("%d:%s", q.NamespaceIndex, q.Name)
}
