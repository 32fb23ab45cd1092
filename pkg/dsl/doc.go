/*
Package dsl provides a fluent Go builder for stories.

It is an alternative to Markdown or YAML content when stories are generated in
code or written inline in tests.

Example usage:

	b := dsl.New("lighthouse").Title("The Lighthouse")

	b.Scene("harbor").
		Title("The Harbor").
		Body("The fog rolls in.").
		Then("path")

	b.Choice("path").
		Option("climb", "lamp").
		Option("wait", "harbor")

	b.Scene("lamp").Body("The lamp is dark.")

	// The resulting loader is a ports.StoryLoader.
	loader, err := b.Build()
*/
package dsl
