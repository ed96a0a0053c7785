// Command storyctl generates stories from the terminal and manages the
// story database.
package main

func main() {
	Execute()
}
