package mcpserver

// PostFormatContract describes the Markdown post format the corpus loader
// accepts.
const PostFormatContract = `# inkgraph Post Format Contract

Every post is a Markdown file (` + "`" + `.md` + "`" + `) in the posts directory. Files in
hidden directories are ignored.

## Structure

` + "```" + `markdown
---
id: graph-basics            # REQUIRED – stable, unique post id; used in URLs and refs
title: Graph basics         # REQUIRED – display title
date: 2025-01-15            # REQUIRED – ISO-8601 date or RFC 3339 datetime
excerpt: One-line summary   # OPTIONAL
author: Jane                # OPTIONAL
tags:                       # OPTIONAL – YAML list; each tag becomes a graph node
  - graphs
  - go
refs:                       # OPTIONAL – YAML list of post ids this post references
  - intro
---

Body text in standard Markdown.

Use [[post-id]] to reference another post.
Use [[post-id|alias]] for display text that differs from the id.
` + "```" + `

## Rules

1. **Front matter is mandatory.** A file without ` + "`" + `id` + "`" + `, ` + "`" + `title` + "`" + ` and ` + "`" + `date` + "`" + `
   is skipped and reported in the graph stats as a skipped file.
2. **Ids are unique.** When two files declare the same id, the file that sorts
   later by path is skipped.
3. **Tags and refs must be YAML lists.** A scalar value is ignored.
4. **References** are the union of ` + "`" + `refs` + "`" + ` and every ` + "`" + `[[target]]` + "`" + ` in the body.
   References to unknown ids and to the post itself create no graph edge.
5. **Wiki-links** to unknown ids render as their plain display text.
`
