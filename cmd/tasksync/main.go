package main

import "tasksync/internal/app"

func main() {
	app.Execute()
}
