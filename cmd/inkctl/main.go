// Command inkctl reads and manages Inkwell notifications from a terminal.
package main

func main() {
	Execute()
}
