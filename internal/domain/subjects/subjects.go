// Package subjects holds the fixed catalog of course labels a note can
// belong to. The ranking subject filter validates against this catalog.
package subjects

import "sort"

// catalog is the list of recognized course labels.
var catalog = map[string]struct{}{
	"Minería de Datos":                     {},
	"Inteligencia Artificial":              {},
	"Sistemas de Información":              {},
	"Seguridad en TI":                      {},
	"Gestión de Proyectos Informáticos":    {},
	"Lenguajes y Paradigmas de Programación": {},
	"Diseño de Software":                   {},
	"Programación Profesional":             {},
	"Ingeniería de Software":               {},
	"Estrategia TI":                        {},
	"Estructuras de Datos y Algoritmos":    {},
	"Redes de Computadores":                {},
	"Arquitectura de Sistemas":             {},
	"Arquitectura Cloud":                   {},
	"Bases de Datos":                       {},
	"Sistemas Operativos":                  {},
}

// Valid reports whether subject is a recognized course label.
// Matching is exact; there is no normalization.
func Valid(subject string) bool {
	_, ok := catalog[subject]
	return ok
}

// All returns the catalog sorted lexicographically.
func All() []string {
	out := make([]string, 0, len(catalog))
	for s := range catalog {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
