/*
Package render compiles script text into templates and executes them for a
script.Job.

Scripts are text/template documents. The root value is a Data describing the
job, and a set of helper functions is available:

	datetime [layout] [utcOffsetHours]   current time; with an offset, UTC shifted by that many hours
	random start end                     integer in [start, end)
	split text sep [removeEmpty]         split on sep; sep accepts escapes such as \n
	concat a b ...                       join values; a []string is joined with the following separator
	substring text start [length]
	chararray text                       one string per character
	lookup list index                    element of a list, empty when out of range
	set key value / get key              values that live for one run
	setcache key value / getcache key    values shared across runs through a cachestore.Store
	include name [value]                 output of a {{define}}d template
	setblock key name [value]            store the output of a defined template with set
	setcacheblock key name [value]       the same, into the shared cache
	color c / background c / fontsize n  change the style copied to every target
	wrap width text                      word wrap to width columns
	bytes n / comma n / ago t            human readable sizes, numbers and times
	title text                           title case

Compiled templates are cached by script text. Concurrent compiles of the same
text are collapsed into one.

Renderer implements execqueue.Runner for *script.Job: it renders the job and
writes the result into every target device. When rendering fails the targets
show the error and the time instead. A job's ScriptDebug: device, if any, gets
the resolved targets and the error.
*/
package render
