package service

import "fmt"

// seqIDs hands out predictable identifiers.
type seqIDs struct {
	n int
}

func (s *seqIDs) Generate() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}
