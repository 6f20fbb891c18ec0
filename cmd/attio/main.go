// Command attio reads and writes Attio records from the command line.
//
// The configured schema decides which objects and lists are available;
// see "attio objects" for the resolved attributes.
package main

func main() {
	Execute()
}
