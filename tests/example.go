package main

// This is an example of embedding cloudy in a Go application

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/cloudylang/cloudy"
)

const program = `func greet(name):
    print("Hello, " + name + "!")

greet("World")

squares = []
for i = 1 to 6: append(squares, i * i)
print(squares)
print(shout("quiet please"))

total = 0
for n = 0 to 10:
    if n % 2 == 0: continue
    total = total + n
total
`

func main() {
	var out bytes.Buffer

	config := cloudy.DefaultConfig()
	config.Stdout = &out
	in := cloudy.New(config)

	// A native function visible to every program run by this interpreter
	in.RegisterBuiltin("shout", []string{"text"}, func(call *cloudy.CallContext) (cloudy.Value, error) {
		s, ok := call.Arg("text").(*cloudy.String)
		if !ok {
			return nil, call.Errorf("Argument must be string")
		}
		return cloudy.NewString(strings.ToUpper(s.Text())), nil
	})

	result, err := in.Run("<example>", program)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Print(out.String())
	fmt.Printf("result: %s\n", result.Repr())

	// Sessions keep their globals between evaluations
	session := in.NewSession("<session>")
	if _, err := session.Eval("counter = 1"); err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}
	v, err := session.Eval("counter = counter + 1\ncounter")
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Printf("counter: %s\n", v)

	// Runtime errors carry a traceback through user functions
	_, err = in.Run("<broken>", "func inner(): 1 / 0\nfunc outer(): inner()\nouter()")
	fmt.Print(err.Error())
}
