// Package extraction implements the interactive extraction form: selecting an
// engine and languages, accepting an uploaded image, running the engine, and
// reporting the result with its statistics.
//
// Nothing here is stored between requests. A Selection and an Upload are built
// per request, passed by value into Extract, and discarded after rendering.
package extraction
