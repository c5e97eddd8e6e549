package main

import (
	"github.com/climabench/climabench/cmd"
	"github.com/sirupsen/logrus"
)

func main() {
	err := cmd.NewRootCmd().Execute()
	if err != nil {
		logrus.Fatalf("Error executing command: %v", err)
	}
}
