// Package tasksource loads declared shell tasks from a YAML file.
//
// A tasks file lists named tasks, each a sequence of shell commands with
// optional parameters:
//
//	tasks:
//	  - name: build
//	    title: Build project
//	    cmds:
//	      - go build ${PKG}
//	    params:
//	      - name: PKG
//	        default: ./...
//
// Each definition becomes a ShellTask of type "shell". Parameters are
// shell-quoted and substituted into commands as ${NAME} when the task runs,
// so a configuration step can edit them after the task is created. Every
// definition is reachable from the command menu, by default at
// "tasks/<name>".
package tasksource
