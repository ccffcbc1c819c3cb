package config

import (
	"os"
	"strconv"
)

const DATABASE_TYPE = "AFLOW_DATABASE_TYPE"
const DATABASE_URL = "AFLOW_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "AFLOW_DATABASE_SQLLITE_FILE_NAME"
const SERVER_WEB_PORT = "AFLOW_SERVER_WEB_PORT"
const WEB_SESSION_EXPIRY_HOURS = "AFLOW_WEB_SESSION_EXPIRY_HOURS"
const TEMPLATE_CATALOG_FILE = "AFLOW_TEMPLATE_CATALOG_FILE" //optional override of the embedded catalog
const IMPORT_CATALOG_ON_START = "AFLOW_IMPORT_CATALOG_ON_START"

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == SERVER_WEB_PORT {
		return "8080"
	}
	if settingKey == WEB_SESSION_EXPIRY_HOURS {
		return "1"
	}
	if settingKey == DATABASE_SQLLITE_FILE_NAME {
		return "./approvalflow.db"
	}
	if settingKey == IMPORT_CATALOG_ON_START {
		return "true"
	}
	return ""
}
