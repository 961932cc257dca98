// SPDX-License-Identifier: MPL-2.0

// Command emanate publishes the members of a Cargo workspace in dependency order.
package main

import cmd "github.com/emanate/emanate/cmd/emanate"

func main() {
	cmd.Execute()
}
