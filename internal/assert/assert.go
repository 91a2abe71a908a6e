package assert

import (
	"fmt"
)

func Length(value string, expected int) {
	if len(value) != expected {
		msg := fmt.Sprintf("assert.Length expected %d actual %d", expected, len(value))
		panic(msg)
	}
}

func Digits(value string) {
	for _, char := range value {
		if char < '0' || char > '9' {
			msg := fmt.Sprintf("assert.Digits found %q in %q", char, value)
			panic(msg)
		}
	}
}
