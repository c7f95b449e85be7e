// Command l2tund runs one endpoint of an Ethernet-over-UDP tunnel, in
// either server or client role.
package main

func main() {
	Execute()
}
