package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Локальный запуск: сервер в фоне и сборка CLI-клиента рядом.
func main() {
	fmt.Println("Запуск geoauth...")

	clientName := "geoauth"
	if runtime.GOOS == "windows" {
		clientName = "geoauth.exe"
	}

	// сервер читает configs/server.yaml и .env из текущей директории
	server := exec.Command("go", "run", "./cmd/server/main.go")
	server.Stdout = os.Stdout
	server.Stderr = os.Stderr

	if err := server.Start(); err != nil {
		fmt.Printf("Ошибка запуска сервера: %v\n", err)
		return
	}

	time.Sleep(3 * time.Second)

	if _, err := os.Stat(clientName); os.IsNotExist(err) {
		fmt.Println("Сборка клиента...")
		build := exec.Command("go", "build", "-o", clientName, "./cmd/geoauth/main.go")
		build.Stdout = os.Stdout
		build.Stderr = os.Stderr
		if err := build.Run(); err != nil {
			fmt.Printf("Ошибка сборки клиента: %v\n", err)
		}
		if runtime.GOOS != "windows" {
			os.Chmod(clientName, 0o755)
		}
	}

	fmt.Println("Сервер запущен: http://127.0.0.1:8080/signup.html")
	if runtime.GOOS == "windows" {
		fmt.Println("Данный терминал не закрывай. Открой новый и запускай: .\\geoauth.exe signup --name ... --email ...")
	} else {
		fmt.Println("Данный терминал не закрывай. Открой новый и запускай: ./geoauth signup --name ... --email ...")
	}

	server.Wait()
}
