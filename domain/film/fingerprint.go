package film

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint generates a deterministic hash of the dataset contents. It is
// recorded in the run manifest so a posterior can always be traced back to
// the exact data it was fitted on.
func (d *Dataset) Fingerprint() string {
	h := sha256.New()
	for _, rec := range d.records {
		fmt.Fprintf(h, "%d|%g|%t", rec.Year, rec.Runtime, rec.WriterIsDirector)
		for _, axis := range Axes {
			for _, id := range rec.Categories[axis] {
				fmt.Fprintf(h, "|%d:%d", axis, id)
			}
		}
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
