package pretty

import "fmt"

// Abbrev shortens s for logging. With no ranges, strings longer than 12
// bytes are cut to 12; one value sets both; two set the max length and the
// cut length.
func Abbrev(s string, ranges ...int) Abbreviated {
	MaxLen := 12
	CutTo := 12
	if len(ranges) >= 2 {
		MaxLen, CutTo = ranges[0], ranges[1]
	} else if len(ranges) == 1 {
		MaxLen, CutTo = ranges[0], ranges[0]
	}
	return Abbreviated{
		Original: s,
		MaxLen:   MaxLen,
		CutTo:    CutTo,
	}
}

type Abbreviated struct {
	Original string
	MaxLen   int
	CutTo    int
}

func (s Abbreviated) String() string {
	if len(s.Original) > s.MaxLen {
		return fmt.Sprintf("%s…", s.Original[:s.CutTo])
	}
	return s.Original
}

// Address abbreviates the public key part of a "PublicKey@host" address,
// keeping the host intact.
func Address(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == '@' {
			return Abbrev(addr[:i]).String() + addr[i:]
		}
	}
	return Abbrev(addr).String()
}
