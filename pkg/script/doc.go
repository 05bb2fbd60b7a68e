/*
Package script discovers script devices on an entity and turns each into a Job.

A script device is any device whose name starts with "Script:". The rest of the name
lists the devices that receive the rendered output:

	Script:LCD Status                 one target
	Script:LCD Fuel,LCD Cargo*        a list; names may be glob patterns
	Script:[8+]LCD Log                append mode, keep the last 8 lines
	Script:[3]LCD News                prepend mode, keep the first 3 lines

The device text is the template. If its first line starts with "Targets:" the rest of
that line adds more targets using the same syntax, and the line is removed from the
template. A device named "ScriptDebug:" plus the same suffix becomes the job's debug
device. Script and debug devices are never targets.
*/
package script
