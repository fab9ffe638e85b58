package main

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func printSuccess(format string, args ...interface{}) {
	successColor.Print("OK ")
	fmt.Printf(format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	infoColor.Print("-- ")
	fmt.Printf(format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	warnColor.Print("!! ")
	fmt.Printf(format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	errorColor.Print("Error: ")
	fmt.Printf(format+"\n", args...)
}
