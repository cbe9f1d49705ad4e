// Package main is the entry point for the hoops server and its
// administration commands.
package main

func main() {
	Execute()
}
