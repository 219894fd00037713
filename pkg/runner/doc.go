/*
Package runner drives a workflow session interactively.

The Runner renders the current step through an IOHandler, reads one command,
applies it to the session controller and repeats until the session is closed or
input ends. Quitting leaves the session open: its position stays in the document
as a resume marker and in the session store.

# Key Components

  - Runner: the command loop.
  - IOHandler: decouples presentation from the loop (TextHandler, JSONHandler).
  - Command: the parsed form of one line of input.

# Usage

	c := session.NewController(session.NewStoredDocument(docs, "deploy.md", 0))
	if _, err := c.Open(ctx); err != nil {
		return err
	}
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	return r.Run(ctx, c)
*/
package runner
