//	@title			Flipbook API
//	@version		1.0
//	@description	Stores uploaded images and composes them into an animated GIF.
//
//	@host		localhost:8080
//	@BasePath	/

package main

func main() {
	Execute()
}
