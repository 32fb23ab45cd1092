// Command storyline plays, inspects and serves branching stories.
package main

func main() {
	Execute()
}
