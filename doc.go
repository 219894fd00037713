/*
Package waypoint interprets checklists embedded in Markdown notes as
step-by-step workflows.

A workflow is the region between two comment markers. Every bullet in it is a
step; headings give steps their context; directives written as comments bind
variables, ask for values and skip steps conditionally:

	%%workflow start%%
	# Release
	- Bump the version
	%%workflow get version%%
	- Tag the commit
	%%workflow if channel = stable%%
	- Announce on the mailing list
	- Close the milestone
	%%workflow end%%

The note is the only state. Moving between steps writes a %%workflow here%%
marker so a session can be resumed later from any editor, and saving an answer
rewrites "get version" into "got version" followed by a temporary binding.
Cancelling or completing a session strips all of that again.

# Usage

	eng, err := waypoint.New("./notes")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	c, step, err := eng.Open(ctx, "release.md", 2)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(step.Text)

	if _, err := c.Answer(ctx, "version", "1.4.0"); err != nil {
		log.Fatal(err)
	}
	step, err = c.Next(ctx)

Remote hosts use [Engine.Service], which resumes the session from its snapshot
on every call, or the HTTP and MCP adapters under pkg/adapters.
*/
package waypoint
