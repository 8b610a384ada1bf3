/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "github.com/labtrail/labtrail/logging"

var logger = logging.Logger(logging.SourceDB)
