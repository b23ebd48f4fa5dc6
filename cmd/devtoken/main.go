package main

import (
	"flag"
	"fmt"
	"os"

	"attend-ease/backend/config"
	"attend-ease/backend/pkg/jwt"
)

// devtoken 用配置中的密钥签发开发用 Access Token
//
//	go run ./cmd/devtoken -user u1 -email 2023csb101@college.edu
func main() {
	configPath := flag.String("config", "", "配置文件路径")
	userID := flag.String("user", "", "用户 ID（必填）")
	email := flag.String("email", "", "邮箱，命中 auth.admin_emails 时视为管理员")
	role := flag.String("role", jwt.RoleStudent, "角色：student | admin")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "缺少 -user 参数")
		flag.Usage()
		os.Exit(2)
	}
	if *role != jwt.RoleStudent && *role != jwt.RoleAdmin {
		fmt.Fprintf(os.Stderr, "无效的角色: %s\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(*userID, *email, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "签发 Token 失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
