// Command peercamd runs one peercam node: it captures frames and person
// detections locally, exchanges them with a remote peer over MQTT, and
// renders whichever side is live. Subcommands cover the field workflow:
// run the node, diagnose the network, or round-trip the broker.
package main

func main() {
	Execute()
}
