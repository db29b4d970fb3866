package smoketest

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Seed vocabulary for generated note titles.
var (
	titleNouns = []string{
		"Resumen", "Apuntes", "Guía", "Ejercicios", "Esquema", "Formulario",
	}
	titleTopics = []string{
		"de normalización", "de grafos", "del certamen 1", "del certamen 2",
		"de concurrencia", "de transacciones", "de subredes", "de patrones",
		"de punteros", "de recursión",
	}
	seedSubjects = []string{
		"Bases de Datos",
		"Estructuras de Datos y Algoritmos",
		"Redes de Computadores",
		"Sistemas Operativos",
		"Diseño de Software",
	}
)

// randomInt returns a uniform random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateNotes builds the seed payloads. Titles carry an index suffix so
// every note is distinguishable in the ranking output.
func generateNotes(cfg *Config) []seedNote {
	notes := make([]seedNote, cfg.NumNotes)
	for i := range notes {
		title := fmt.Sprintf("%s %s #%d",
			titleNouns[randomInt(len(titleNouns))],
			titleTopics[randomInt(len(titleTopics))],
			i+1,
		)
		notes[i] = seedNote{
			Title:    title,
			Subject:  seedSubjects[randomInt(len(seedSubjects))],
			FileURL:  fmt.Sprintf("https://files.example.com/seed/%d.pdf", i+1),
			FileType: "pdf",
		}
	}
	return notes
}

// vote pairs a voter identity with a value for one note.
type vote struct {
	noteID string
	voter  string
	value  int
}

// generateVotes assigns each voter a handful of random votes. Values skew
// positive the way real rating data does.
func generateVotes(cfg *Config, noteIDs []string) []vote {
	if len(noteIDs) == 0 {
		return nil
	}
	votes := make([]vote, 0, cfg.Voters*3)
	for v := 0; v < cfg.Voters; v++ {
		voter := fmt.Sprintf("voter%d@example.com", v+1)
		for n := 0; n < 1+randomInt(3); n++ {
			value := 3 + randomInt(3)
			if randomInt(10) == 0 {
				value = 1 + randomInt(2)
			}
			votes = append(votes, vote{
				noteID: noteIDs[randomInt(len(noteIDs))],
				voter:  voter,
				value:  value,
			})
		}
	}
	return votes
}
